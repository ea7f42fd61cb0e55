package repository

import (
	"errors"

	"course_ai_backend/internal/model"
	"course_ai_backend/internal/util"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

// CourseListQuery 课程列表查询条件，difficulty/language 传 "all" 或空表示不过滤
type CourseListQuery struct {
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
	Difficulty string
	Language   string
	Search     string
}

// 白名单排序字段，避免把用户输入直接拼进 ORDER BY
var sortColumns = map[string]string{
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
	"title":           "title",
	"totalDuration":   "total_duration",
	"difficultyLevel": "difficulty_level",
}

func (r *CourseRepository) List(q CourseListQuery) ([]model.Course, int64, error) {
	db := r.DB.Model(&model.Course{})

	if q.Difficulty != "" && q.Difficulty != "all" {
		db = db.Where("difficulty_level = ?", q.Difficulty)
	}
	if q.Language != "" && q.Language != "all" {
		db = db.Where("language = ?", q.Language)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		skillSub := r.DB.Model(&model.SkillGained{}).Select("course_id").Where("skill LIKE ?", like)
		db = db.Where("title LIKE ? OR description LIKE ? OR id IN (?)", like, like, skillSub)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if q.SortOrder == "asc" {
		order = "ASC"
	}

	var courses []model.Course
	err := db.Preload("SkillsGained").
		Order(column + " " + order).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&courses).Error
	return courses, total, err
}

// Create 一次性写入课程及其嵌套的目标/技能/章节/课时
func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

// FindByID 返回嵌套章节与课时的课程详情，课时列表不带 content 字段
func (r *CourseRepository) FindByID(id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("LearningObjectives").
		Preload("SkillsGained").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("no ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "no", "module_id", "created_at", "updated_at").Order("no ASC")
		}).
		First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return &course, err
}

// CourseUpdate 课程基础字段加目标/技能的差量更新
type CourseUpdate struct {
	Title              string
	Description        string
	Language           string
	DifficultyLevel    model.DifficultyLevel
	VerifiedBy         string
	TotalDuration      float64
	LearningObjectives []model.LearningObjective
	SkillsGained       []model.SkillGained
}

// Update 事务内执行：删除不在提交集合里的子记录，更新带 id 的，新建无 id 的
func (r *CourseRepository) Update(id string, upd CourseUpdate) (*model.Course, error) {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.Course
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrCourseNotFound
			}
			return err
		}

		keepObjectives := make([]string, 0, len(upd.LearningObjectives))
		for _, o := range upd.LearningObjectives {
			if o.ID != "" {
				keepObjectives = append(keepObjectives, o.ID)
			}
		}
		q := tx.Where("course_id = ?", id)
		if len(keepObjectives) > 0 {
			q = q.Where("id NOT IN ?", keepObjectives)
		}
		if err := q.Delete(&model.LearningObjective{}).Error; err != nil {
			return err
		}

		keepSkills := make([]string, 0, len(upd.SkillsGained))
		for _, s := range upd.SkillsGained {
			if s.ID != "" {
				keepSkills = append(keepSkills, s.ID)
			}
		}
		q = tx.Where("course_id = ?", id)
		if len(keepSkills) > 0 {
			q = q.Where("id NOT IN ?", keepSkills)
		}
		if err := q.Delete(&model.SkillGained{}).Error; err != nil {
			return err
		}

		for _, o := range upd.LearningObjectives {
			if o.ID != "" {
				if err := tx.Model(&model.LearningObjective{}).Where("id = ?", o.ID).
					Update("objective", o.Objective).Error; err != nil {
					return err
				}
			} else {
				obj := model.LearningObjective{Objective: o.Objective, CourseID: id}
				if err := tx.Create(&obj).Error; err != nil {
					return err
				}
			}
		}

		for _, s := range upd.SkillsGained {
			if s.ID != "" {
				if err := tx.Model(&model.SkillGained{}).Where("id = ?", s.ID).
					Update("skill", s.Skill).Error; err != nil {
					return err
				}
			} else {
				skill := model.SkillGained{Skill: s.Skill, CourseID: id}
				if err := tx.Create(&skill).Error; err != nil {
					return err
				}
			}
		}

		return tx.Model(&model.Course{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":            upd.Title,
			"description":      upd.Description,
			"language":         upd.Language,
			"difficulty_level": upd.DifficultyLevel,
			"verified_by":      upd.VerifiedBy,
			"total_duration":   upd.TotalDuration,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	var course model.Course
	if err := r.DB.Preload("LearningObjectives").Preload("SkillsGained").
		First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Delete 级联删除，先子后父：课时 → 章节 → 目标/技能 → 课程
func (r *CourseRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.Course
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrCourseNotFound
			}
			return err
		}

		moduleIDs := tx.Model(&model.CourseModule{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("module_id IN (?)", moduleIDs).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.CourseModule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.LearningObjective{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.SkillGained{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Course{}, "id = ?", id).Error
	})
}

func (r *CourseRepository) UpdateCoverImage(id, url string) error {
	res := r.DB.Model(&model.Course{}).Where("id = ?", id).Update("cover_image_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrCourseNotFound
	}
	return nil
}
