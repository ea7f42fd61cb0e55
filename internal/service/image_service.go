package service

import (
	"bytes"
	"context"
	"fmt"

	"course_ai_backend/internal/model"
	"course_ai_backend/internal/repository"
	"course_ai_backend/pkg/logger"

	"go.uber.org/zap"
)

type imageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// ImageService 生成课程封面图并写入对象存储
type ImageService struct {
	ai      imageGenerator
	storage *StorageService
	courses *repository.CourseRepository
}

func NewImageService(ai imageGenerator, storage *StorageService, courses *repository.CourseRepository) *ImageService {
	return &ImageService{ai: ai, storage: storage, courses: courses}
}

// GenerateCoverImage 按课程标题生成一张封面图，存储后返回可访问地址
func (s *ImageService) GenerateCoverImage(ctx context.Context, title string) (string, error) {
	prompt := fmt.Sprintf(
		"A modern, minimal course cover illustration for a course titled \"%s\". "+
			"Flat design, bold shapes, no text, no watermarks.",
		title,
	)

	data, err := s.ai.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("covers/%s.png", model.GenerateUUID())
	url, err := s.storage.Upload(ctx, filename, bytes.NewReader(data), int64(len(data)), "image/png")
	if err != nil {
		return "", err
	}

	logger.Log.Info("generated cover image", zap.String("title", title), zap.String("url", url))
	return url, nil
}

// GenerateCover 为已存在的课程生成封面并把地址写回课程记录
func (s *ImageService) GenerateCover(ctx context.Context, courseID string) (*model.Course, error) {
	course, err := s.courses.FindByID(courseID)
	if err != nil {
		return nil, err
	}

	url, err := s.GenerateCoverImage(ctx, course.Title)
	if err != nil {
		return nil, err
	}

	if err := s.courses.UpdateCoverImage(course.ID, url); err != nil {
		return nil, err
	}
	course.CoverImageURL = url
	return course, nil
}
