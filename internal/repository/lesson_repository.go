package repository

import (
	"context"
	"errors"

	"course_ai_backend/internal/model"
	"course_ai_backend/internal/util"

	"gorm.io/gorm"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

// FindModule 校验章节确实属于该课程
func (r *LessonRepository) FindModule(ctx context.Context, courseID, moduleID string) (*model.CourseModule, error) {
	var module model.CourseModule
	err := r.DB.WithContext(ctx).
		First(&module, "id = ? AND course_id = ?", moduleID, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrModuleNotInCourse
	}
	if err != nil {
		return nil, err
	}
	return &module, nil
}

// FindByIdentity 按（课程，章节，课时）三元组取课时，归属链不成立视为不存在
func (r *LessonRepository) FindByIdentity(ctx context.Context, courseID, moduleID, lessonID string) (*model.Lesson, error) {
	if _, err := r.FindModule(ctx, courseID, moduleID); err != nil {
		return nil, err
	}

	var lesson model.Lesson
	err := r.DB.WithContext(ctx).
		First(&lesson, "id = ? AND module_id = ?", lessonID, moduleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLessonNotInModule
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) ListByModule(ctx context.Context, moduleID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("no ASC").
		Find(&lessons).Error
	return lessons, err
}

// Create 新课时追加到章节末尾，序号取当前最大值加一
func (r *LessonRepository) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if lesson.No == 0 {
			var maxNo int
			row := tx.Model(&model.Lesson{}).
				Where("module_id = ?", lesson.ModuleID).
				Select("COALESCE(MAX(no), 0)").
				Row()
			if err := row.Scan(&maxNo); err != nil {
				return err
			}
			lesson.No = maxNo + 1
		}
		return tx.Create(lesson).Error
	})
}

// UpdateContent 写入生成完成的完整文档，只在确认归属后调用
func (r *LessonRepository) UpdateContent(ctx context.Context, lessonID, title, content string) (*model.Lesson, error) {
	updates := map[string]interface{}{
		"title":   title,
		"content": content,
	}
	if err := r.DB.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("id = ?", lessonID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	var lesson model.Lesson
	if err := r.DB.WithContext(ctx).First(&lesson, "id = ?", lessonID).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) Delete(ctx context.Context, lessonID string) error {
	return r.DB.WithContext(ctx).Delete(&model.Lesson{}, "id = ?", lessonID).Error
}
