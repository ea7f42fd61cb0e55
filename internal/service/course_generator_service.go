package service

import (
	"context"
	"fmt"
	"strings"

	"course_ai_backend/internal/model"
	"course_ai_backend/internal/util"
	"course_ai_backend/pkg/logger"

	"go.uber.org/zap"
)

const curriculumSystemPrompt = "You are an expert curriculum architect. " +
	"You design complete, teachable course structures with well-ordered modules and lessons."

// CurriculumInput 课程物化请求，生成并落库完整课程树。
// 可选字段通常来自前一步选中的课程建议，作为提示词上下文透传
type CurriculumInput struct {
	CourseTitle    string   `json:"courseTitle" binding:"required"`
	Level          string   `json:"level" binding:"required"`
	Lang           string   `json:"lang" binding:"required"`
	VerifiedBy     string   `json:"verifiedBy" binding:"required"`
	TotalDuration  float64  `json:"totalDuration" binding:"required"`
	DesiredModules *int     `json:"desiredModules"`
	Description    string   `json:"description"`
	TargetAudience string   `json:"targetAudience"`
	KeyTopics      []string `json:"keyTopics"`
	Prerequisites  []string `json:"prerequisites"`
}

type generatedLesson struct {
	Title string `json:"title"`
}

type generatedModule struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	DurationHours float64           `json:"durationHours"`
	Lessons       []generatedLesson `json:"lessons"`
}

type generatedCurriculum struct {
	Description        string            `json:"description"`
	LearningObjectives []string          `json:"learningObjectives"`
	SkillsGain         []string          `json:"skillsGain"`
	Modules            []generatedModule `json:"modules"`
}

type courseStore interface {
	Create(course *model.Course) error
	FindByID(id string) (*model.Course, error)
}

type CourseGeneratorService struct {
	ai      jsonGenerator
	courses courseStore
}

func NewCourseGeneratorService(ai jsonGenerator, courses courseStore) *CourseGeneratorService {
	return &CourseGeneratorService{ai: ai, courses: courses}
}

var curriculumSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"description": map[string]interface{}{"type": "string"},
		"learningObjectives": map[string]interface{}{
			"type":     "array",
			"items":    map[string]interface{}{"type": "string"},
			"minItems": 1,
		},
		"skillsGain": map[string]interface{}{
			"type":     "array",
			"items":    map[string]interface{}{"type": "string"},
			"minItems": 1,
		},
		"modules": map[string]interface{}{
			"type":     "array",
			"minItems": 3,
			"maxItems": 20,
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title":         map[string]interface{}{"type": "string"},
					"description":   map[string]interface{}{"type": "string"},
					"durationHours": map[string]interface{}{"type": "number"},
					"lessons": map[string]interface{}{
						"type":     "array",
						"minItems": 3,
						"maxItems": 10,
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"title": map[string]interface{}{"type": "string"},
							},
							"required":             []string{"title"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"title", "description", "durationHours", "lessons"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"description", "learningObjectives", "skillsGain", "modules"},
	"additionalProperties": false,
}

// Validate 在调用模型之前拦截无效输入，避免浪费一次生成
func (in CurriculumInput) Validate() error {
	if strings.TrimSpace(in.CourseTitle) == "" {
		return fmt.Errorf("%w: courseTitle is required", util.ErrValidation)
	}
	if strings.TrimSpace(in.VerifiedBy) == "" {
		return fmt.Errorf("%w: verifiedBy is required", util.ErrValidation)
	}
	if strings.TrimSpace(in.Lang) == "" {
		return fmt.Errorf("%w: lang is required", util.ErrValidation)
	}
	if !model.DifficultyLevel(in.Level).Valid() {
		return util.ErrInvalidDifficulty
	}
	if in.TotalDuration <= 0 {
		return util.ErrInvalidDuration
	}
	if in.DesiredModules != nil && (*in.DesiredModules < 3 || *in.DesiredModules > 20) {
		return util.ErrInvalidModuleCount
	}
	return nil
}

// Materialize 生成课程大纲并原子落库，返回已持久化的课程树。
// 所有课时的 Content 为空，内容按需由 LessonContentService 解析。
func (s *CourseGeneratorService) Materialize(ctx context.Context, in CurriculumInput) (*model.Course, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Design the complete curriculum for a %s-level course titled \"%s\".\n", in.Level, in.CourseTitle)
	fmt.Fprintf(&b, "Strictly the course is verified by %s.\n", in.VerifiedBy)
	fmt.Fprintf(&b, "Total course duration: %.1f hours. Distribute it realistically across modules.\n", in.TotalDuration)
	if in.DesiredModules != nil {
		fmt.Fprintf(&b, "The course must have exactly %d modules.\n", *in.DesiredModules)
	}
	if in.Description != "" {
		fmt.Fprintf(&b, "Course outline: %s\n", in.Description)
	}
	if in.TargetAudience != "" {
		fmt.Fprintf(&b, "Target audience: %s.\n", in.TargetAudience)
	}
	if len(in.KeyTopics) > 0 {
		fmt.Fprintf(&b, "The curriculum must cover these key topics: %s.\n", strings.Join(in.KeyTopics, ", "))
	}
	if len(in.Prerequisites) > 0 {
		fmt.Fprintf(&b, "Assume learners already know: %s.\n", strings.Join(in.Prerequisites, ", "))
	}
	fmt.Fprintf(&b, "Language: %s.\n", in.Lang)
	b.WriteString("Each module needs 3-10 lessons ordered so earlier lessons prepare for later ones.\n")
	b.WriteString("Lesson titles only, no lesson content.")

	var cur generatedCurriculum
	if err := s.ai.GenerateJSON(ctx, curriculumSystemPrompt, b.String(), "course_curriculum", curriculumSchema, &cur); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrGenerationFailed, err)
	}
	if err := validateCurriculum(&cur, in.DesiredModules); err != nil {
		return nil, err
	}

	course := assembleCourse(in, &cur)
	if err := s.courses.Create(course); err != nil {
		return nil, err
	}
	logger.Log.Info("materialized course",
		zap.String("courseId", course.ID),
		zap.Int("modules", len(course.Modules)))

	// 回读一次，带关联、统一排序
	return s.courses.FindByID(course.ID)
}

// validateCurriculum 模型带 schema 约束仍可能越界，落库前再校验一次
func validateCurriculum(cur *generatedCurriculum, desiredModules *int) error {
	if len(cur.Modules) < 3 || len(cur.Modules) > 20 {
		return fmt.Errorf("%w: model produced %d modules", util.ErrGenerationFailed, len(cur.Modules))
	}
	if desiredModules != nil && len(cur.Modules) != *desiredModules {
		logger.Log.Warn("model ignored desired module count",
			zap.Int("desired", *desiredModules), zap.Int("actual", len(cur.Modules)))
	}
	for i, m := range cur.Modules {
		if strings.TrimSpace(m.Title) == "" {
			return fmt.Errorf("%w: module %d has no title", util.ErrGenerationFailed, i+1)
		}
		if len(m.Lessons) < 3 || len(m.Lessons) > 10 {
			return fmt.Errorf("%w: module %q has %d lessons", util.ErrGenerationFailed, m.Title, len(m.Lessons))
		}
		for j, l := range m.Lessons {
			if strings.TrimSpace(l.Title) == "" {
				return fmt.Errorf("%w: module %q lesson %d has no title", util.ErrGenerationFailed, m.Title, j+1)
			}
		}
	}
	return nil
}

func assembleCourse(in CurriculumInput, cur *generatedCurriculum) *model.Course {
	course := &model.Course{
		Title:           in.CourseTitle,
		Description:     cur.Description,
		Language:        in.Lang,
		DifficultyLevel: model.DifficultyLevel(in.Level),
		VerifiedBy:      in.VerifiedBy,
		TotalDuration:   in.TotalDuration,
	}
	for _, obj := range cur.LearningObjectives {
		course.LearningObjectives = append(course.LearningObjectives, model.LearningObjective{Objective: obj})
	}
	for _, skill := range cur.SkillsGain {
		course.SkillsGained = append(course.SkillsGained, model.SkillGained{Skill: skill})
	}
	for i, m := range cur.Modules {
		mod := model.CourseModule{
			Title:         m.Title,
			Description:   m.Description,
			DurationHours: m.DurationHours,
			No:            i + 1,
		}
		for j, l := range m.Lessons {
			mod.Lessons = append(mod.Lessons, model.Lesson{Title: l.Title, No: j + 1})
		}
		course.Modules = append(course.Modules, mod)
	}
	return course
}
