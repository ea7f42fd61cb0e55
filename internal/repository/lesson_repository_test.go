package repository

import (
	"context"
	"errors"
	"testing"

	"course_ai_backend/internal/model"
	"course_ai_backend/internal/util"
)

func TestFindByIdentityEnforcesOwnership(t *testing.T) {
	db := setupDB(t)
	courses := NewCourseRepository(db)
	lessons := NewLessonRepository(db)
	ctx := context.Background()

	first := seedCourse(t, courses, "Go Fundamentals", model.Beginner)
	second := seedCourse(t, courses, "Rust Systems", model.Advanced)

	module := first.Modules[0]
	lesson := module.Lessons[0]

	got, err := lessons.FindByIdentity(ctx, first.ID, module.ID, lesson.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != lesson.ID || got.Content == nil {
		t.Fatalf("identity lookup must return the full lesson: %+v", got)
	}

	// 章节挂在另一门课程下
	if _, err := lessons.FindByIdentity(ctx, second.ID, module.ID, lesson.ID); !errors.Is(err, util.ErrModuleNotInCourse) {
		t.Fatalf("expected ErrModuleNotInCourse, got %v", err)
	}

	// 课时挂在另一个章节下
	otherModule := first.Modules[1]
	if _, err := lessons.FindByIdentity(ctx, first.ID, otherModule.ID, lesson.ID); !errors.Is(err, util.ErrLessonNotInModule) {
		t.Fatalf("expected ErrLessonNotInModule, got %v", err)
	}
}

func TestCreateAppendsWithNextOrdinal(t *testing.T) {
	db := setupDB(t)
	courses := NewCourseRepository(db)
	lessons := NewLessonRepository(db)
	ctx := context.Background()

	course := seedCourse(t, courses, "Go Fundamentals", model.Beginner)
	module := course.Modules[0] // 已有 2 个课时

	lesson := &model.Lesson{Title: "Tooling", ModuleID: module.ID}
	if err := lessons.Create(ctx, lesson); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lesson.No != 3 {
		t.Fatalf("expected ordinal 3, got %d", lesson.No)
	}

	list, err := lessons.ListByModule(ctx, module.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 || list[2].Title != "Tooling" {
		t.Fatalf("unexpected lesson list: %+v", list)
	}
}

func TestUpdateContentWritesWholeDocument(t *testing.T) {
	db := setupDB(t)
	courses := NewCourseRepository(db)
	lessons := NewLessonRepository(db)
	ctx := context.Background()

	course := seedCourse(t, courses, "Go Fundamentals", model.Beginner)
	lesson := course.Modules[0].Lessons[1] // 无内容

	updated, err := lessons.UpdateContent(ctx, lesson.ID, "Setup, Revisited", "# Setup\nfull document")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Setup, Revisited" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
	if updated.Content == nil || *updated.Content != "# Setup\nfull document" {
		t.Fatalf("content not written: %+v", updated.Content)
	}
}

func TestDeleteLesson(t *testing.T) {
	db := setupDB(t)
	courses := NewCourseRepository(db)
	lessons := NewLessonRepository(db)
	ctx := context.Background()

	course := seedCourse(t, courses, "Go Fundamentals", model.Beginner)
	module := course.Modules[0]
	lesson := module.Lessons[0]

	if err := lessons.Delete(ctx, lesson.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := lessons.FindByIdentity(ctx, course.ID, module.ID, lesson.ID); !errors.Is(err, util.ErrLessonNotInModule) {
		t.Fatalf("deleted lesson still resolvable: %v", err)
	}
}
