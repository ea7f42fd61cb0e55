package model

type DifficultyLevel string

const (
	Beginner     DifficultyLevel = "beginner"
	Intermediate DifficultyLevel = "intermediate"
	Advanced     DifficultyLevel = "advanced"
)

func (d DifficultyLevel) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

type Course struct {
	UUIDBase
	Title           string          `gorm:"size:255;not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	Language        string          `gorm:"size:16;not null" json:"language"`
	DifficultyLevel DifficultyLevel `gorm:"size:20;not null" json:"difficultyLevel"`
	VerifiedBy      string          `gorm:"size:255" json:"verifiedBy"`
	TotalDuration   float64         `json:"totalDuration"` // 课程总时长（小时）
	CoverImageURL   string          `gorm:"size:512" json:"coverImageUrl,omitempty"`

	LearningObjectives []LearningObjective `gorm:"foreignKey:CourseID" json:"learningObjectives,omitempty"`
	SkillsGained       []SkillGained       `gorm:"foreignKey:CourseID" json:"skillsGained,omitempty"`
	Modules            []CourseModule      `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

type LearningObjective struct {
	UUIDBase
	Objective string `gorm:"type:text;not null" json:"objective"`
	CourseID  string `gorm:"index;type:varchar(36)" json:"courseId"`
}

func (LearningObjective) TableName() string {
	return "learning_objectives"
}

type SkillGained struct {
	UUIDBase
	Skill    string `gorm:"size:255;not null" json:"skill"`
	CourseID string `gorm:"index;type:varchar(36)" json:"courseId"`
}

func (SkillGained) TableName() string {
	return "skills_gained"
}
