package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"course_ai_backend/internal/model"
	"course_ai_backend/internal/util"
)

// fakeJSONGen 把预置的结构体按 JSON 回灌给调用方
type fakeJSONGen struct {
	payload    interface{}
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeJSONGen) GenerateJSON(ctx context.Context, system, prompt, schemaName string, schema map[string]interface{}, out interface{}) error {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return f.err
	}
	b, err := json.Marshal(f.payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (f *fakeJSONGen) Chat(ctx context.Context, system, prompt string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

type fakeCourseStore struct {
	created *model.Course
}

func (f *fakeCourseStore) Create(course *model.Course) error {
	course.ID = "course-created"
	f.created = course
	return nil
}

func (f *fakeCourseStore) FindByID(id string) (*model.Course, error) {
	if f.created == nil || f.created.ID != id {
		return nil, util.ErrCourseNotFound
	}
	return f.created, nil
}

func validCurriculum(moduleCount int) generatedCurriculum {
	cur := generatedCurriculum{
		Description:        "A thorough course.",
		LearningObjectives: []string{"understand the basics"},
		SkillsGain:         []string{"problem solving"},
	}
	for i := 0; i < moduleCount; i++ {
		m := generatedModule{
			Title:         fmt.Sprintf("Module %d", i+1),
			Description:   "module description",
			DurationHours: 4,
		}
		for j := 0; j < 3; j++ {
			m.Lessons = append(m.Lessons, generatedLesson{Title: fmt.Sprintf("Lesson %d.%d", i+1, j+1)})
		}
		cur.Modules = append(cur.Modules, m)
	}
	return cur
}

func validInput() CurriculumInput {
	return CurriculumInput{
		CourseTitle:   "Intro to Databases",
		Level:         "beginner",
		Lang:          "en",
		VerifiedBy:    "Stanford Online",
		TotalDuration: 20,
	}
}

func TestCurriculumInputValidation(t *testing.T) {
	three := 3
	two := 2
	twentyOne := 21

	cases := []struct {
		name    string
		mutate  func(*CurriculumInput)
		wantErr error
	}{
		{"valid", func(in *CurriculumInput) {}, nil},
		{"valid with desired modules", func(in *CurriculumInput) { in.DesiredModules = &three }, nil},
		{"blank title", func(in *CurriculumInput) { in.CourseTitle = "  " }, util.ErrValidation},
		{"blank verifier", func(in *CurriculumInput) { in.VerifiedBy = "" }, util.ErrValidation},
		{"blank lang", func(in *CurriculumInput) { in.Lang = "" }, util.ErrValidation},
		{"bad level", func(in *CurriculumInput) { in.Level = "expert" }, util.ErrInvalidDifficulty},
		{"zero duration", func(in *CurriculumInput) { in.TotalDuration = 0 }, util.ErrInvalidDuration},
		{"negative duration", func(in *CurriculumInput) { in.TotalDuration = -3 }, util.ErrInvalidDuration},
		{"too few modules", func(in *CurriculumInput) { in.DesiredModules = &two }, util.ErrInvalidModuleCount},
		{"too many modules", func(in *CurriculumInput) { in.DesiredModules = &twentyOne }, util.ErrInvalidModuleCount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			err := in.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestMaterializeRejectsBeforeGenerating(t *testing.T) {
	gen := &fakeJSONGen{payload: validCurriculum(3)}
	store := &fakeCourseStore{}
	svc := NewCourseGeneratorService(gen, store)

	in := validInput()
	in.TotalDuration = -1
	if _, err := svc.Materialize(context.Background(), in); !errors.Is(err, util.ErrInvalidDuration) {
		t.Fatalf("expected duration error, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatal("model must not be called for invalid input")
	}
}

func TestMaterializePersistsOrderedTree(t *testing.T) {
	gen := &fakeJSONGen{payload: validCurriculum(4)}
	store := &fakeCourseStore{}
	svc := NewCourseGeneratorService(gen, store)

	course, err := svc.Materialize(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if course.ID != "course-created" {
		t.Fatalf("expected persisted course back, got %+v", course)
	}
	if len(course.Modules) != 4 {
		t.Fatalf("expected 4 modules, got %d", len(course.Modules))
	}
	for i, m := range course.Modules {
		if m.No != i+1 {
			t.Fatalf("module %d has ordinal %d", i, m.No)
		}
		if len(m.Lessons) != 3 {
			t.Fatalf("module %q has %d lessons", m.Title, len(m.Lessons))
		}
		for j, l := range m.Lessons {
			if l.No != j+1 {
				t.Fatalf("lesson %d in module %q has ordinal %d", j, m.Title, l.No)
			}
			if l.Content != nil {
				t.Fatal("materialized lessons must have no content")
			}
		}
	}
	if len(course.LearningObjectives) != 1 || len(course.SkillsGained) != 1 {
		t.Fatalf("associations missing: %+v", course)
	}
}

func TestMaterializeCarriesSuggestionContext(t *testing.T) {
	gen := &fakeJSONGen{payload: validCurriculum(3)}
	svc := NewCourseGeneratorService(gen, &fakeCourseStore{})

	in := validInput()
	in.TargetAudience = "working backend engineers"
	in.KeyTopics = []string{"indexes", "transactions"}
	in.Prerequisites = []string{"basic SQL"}

	if _, err := svc.Materialize(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"working backend engineers", "indexes, transactions", "basic SQL"} {
		if !strings.Contains(gen.lastPrompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, gen.lastPrompt)
		}
	}
}

func TestMaterializeRejectsOutOfRangeModel(t *testing.T) {
	gen := &fakeJSONGen{payload: validCurriculum(2)} // 模型越过下界
	store := &fakeCourseStore{}
	svc := NewCourseGeneratorService(gen, store)

	_, err := svc.Materialize(context.Background(), validInput())
	if !errors.Is(err, util.ErrGenerationFailed) {
		t.Fatalf("expected generation failure, got %v", err)
	}
	if store.created != nil {
		t.Fatal("invalid curriculum must not be persisted")
	}
}

func TestMaterializePropagatesModelError(t *testing.T) {
	gen := &fakeJSONGen{err: fmt.Errorf("rate limited")}
	store := &fakeCourseStore{}
	svc := NewCourseGeneratorService(gen, store)

	_, err := svc.Materialize(context.Background(), validInput())
	if !errors.Is(err, util.ErrGenerationFailed) {
		t.Fatalf("expected wrapped generation failure, got %v", err)
	}
}
