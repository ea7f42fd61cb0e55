package service

import (
	"course_ai_backend/internal/model"
	"course_ai_backend/internal/repository"
	"course_ai_backend/internal/util"
)

// CourseInput 手工创建/更新课程的请求体，嵌套结构与课程树一一对应
type CourseInput struct {
	Title              string              `json:"title" binding:"required"`
	Description        string              `json:"description"`
	Language           string              `json:"language" binding:"required"`
	DifficultyLevel    string              `json:"difficultyLevel" binding:"required"`
	VerifiedBy         string              `json:"verifiedBy"`
	TotalDuration      float64             `json:"totalDuration"`
	LearningObjectives []string            `json:"learningObjectives"`
	SkillsGained       []string            `json:"skillsGained"`
	Modules            []CourseModuleInput `json:"modules"`
}

type CourseModuleInput struct {
	Title         string        `json:"title" binding:"required"`
	Description   string        `json:"description"`
	DurationHours float64       `json:"durationHours"`
	Lessons       []LessonInput `json:"lessons"`
}

type LessonInput struct {
	Title string `json:"title" binding:"required"`
}

// CourseUpdateInput 更新时学习目标/技能带可选 id，携带 id 的更新，缺 id 的新建，
// 不在集合里的删除
type CourseUpdateInput struct {
	Title              string               `json:"title" binding:"required"`
	Description        string               `json:"description"`
	Language           string               `json:"language" binding:"required"`
	DifficultyLevel    string               `json:"difficultyLevel" binding:"required"`
	VerifiedBy         string               `json:"verifiedBy"`
	TotalDuration      float64              `json:"totalDuration"`
	LearningObjectives []IdentifiedTextItem `json:"learningObjectives"`
	SkillsGained       []IdentifiedTextItem `json:"skillsGained"`
}

type IdentifiedTextItem struct {
	ID    string `json:"id"`
	Value string `json:"value" binding:"required"`
}

type CourseService struct {
	courses *repository.CourseRepository
}

func NewCourseService(courses *repository.CourseRepository) *CourseService {
	return &CourseService{courses: courses}
}

func (s *CourseService) List(q repository.CourseListQuery) ([]model.Course, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	return s.courses.List(q)
}

func (s *CourseService) Create(in CourseInput) (*model.Course, error) {
	if !model.DifficultyLevel(in.DifficultyLevel).Valid() {
		return nil, util.ErrInvalidDifficulty
	}

	course := &model.Course{
		Title:           in.Title,
		Description:     in.Description,
		Language:        in.Language,
		DifficultyLevel: model.DifficultyLevel(in.DifficultyLevel),
		VerifiedBy:      in.VerifiedBy,
		TotalDuration:   in.TotalDuration,
	}
	for _, obj := range in.LearningObjectives {
		course.LearningObjectives = append(course.LearningObjectives, model.LearningObjective{Objective: obj})
	}
	for _, skill := range in.SkillsGained {
		course.SkillsGained = append(course.SkillsGained, model.SkillGained{Skill: skill})
	}
	for i, m := range in.Modules {
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

	if err := s.courses.Create(course); err != nil {
		return nil, err
	}
	return s.courses.FindByID(course.ID)
}

func (s *CourseService) Get(id string) (*model.Course, error) {
	return s.courses.FindByID(id)
}

func (s *CourseService) Update(id string, in CourseUpdateInput) (*model.Course, error) {
	if !model.DifficultyLevel(in.DifficultyLevel).Valid() {
		return nil, util.ErrInvalidDifficulty
	}

	upd := repository.CourseUpdate{
		Title:           in.Title,
		Description:     in.Description,
		Language:        in.Language,
		DifficultyLevel: model.DifficultyLevel(in.DifficultyLevel),
		VerifiedBy:      in.VerifiedBy,
		TotalDuration:   in.TotalDuration,
	}
	for _, item := range in.LearningObjectives {
		obj := model.LearningObjective{Objective: item.Value, CourseID: id}
		obj.ID = item.ID
		upd.LearningObjectives = append(upd.LearningObjectives, obj)
	}
	for _, item := range in.SkillsGained {
		skill := model.SkillGained{Skill: item.Value, CourseID: id}
		skill.ID = item.ID
		upd.SkillsGained = append(upd.SkillsGained, skill)
	}
	return s.courses.Update(id, upd)
}

func (s *CourseService) Delete(id string) error {
	return s.courses.Delete(id)
}
