package service

import (
	"context"

	"course_ai_backend/internal/model"
	"course_ai_backend/internal/repository"
)

// LessonService 模块内课时的增删改查，所有读写都先核对归属链
type LessonService struct {
	lessons *repository.LessonRepository
}

func NewLessonService(lessons *repository.LessonRepository) *LessonService {
	return &LessonService{lessons: lessons}
}

func (s *LessonService) List(ctx context.Context, courseID, moduleID string) ([]model.Lesson, error) {
	module, err := s.lessons.FindModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}
	return s.lessons.ListByModule(ctx, module.ID)
}

func (s *LessonService) Create(ctx context.Context, courseID, moduleID, title string) (*model.Lesson, error) {
	module, err := s.lessons.FindModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}
	lesson := &model.Lesson{Title: title, ModuleID: module.ID}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) Get(ctx context.Context, courseID, moduleID, lessonID string) (*model.Lesson, error) {
	return s.lessons.FindByIdentity(ctx, courseID, moduleID, lessonID)
}

func (s *LessonService) UpdateContent(ctx context.Context, courseID, moduleID, lessonID, title, content string) (*model.Lesson, error) {
	lesson, err := s.lessons.FindByIdentity(ctx, courseID, moduleID, lessonID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = lesson.Title
	}
	return s.lessons.UpdateContent(ctx, lesson.ID, title, content)
}

func (s *LessonService) Delete(ctx context.Context, courseID, moduleID, lessonID string) error {
	lesson, err := s.lessons.FindByIdentity(ctx, courseID, moduleID, lessonID)
	if err != nil {
		return err
	}
	return s.lessons.Delete(ctx, lesson.ID)
}
