package model

// CourseModule 课程内的章节，No 为课程内 1 开始的连续序号
type CourseModule struct {
	UUIDBase
	Title         string  `gorm:"size:255;not null" json:"title"`
	Description   string  `gorm:"type:text" json:"description"`
	DurationHours float64 `json:"durationHours"`
	No            int     `gorm:"not null;uniqueIndex:idx_course_module_no" json:"no"`
	CourseID      string  `gorm:"type:varchar(36);uniqueIndex:idx_course_module_no;index" json:"courseId"`

	Lessons []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// Lesson Content 为空表示尚未生成；一旦写入即为完整文档，绝不落库半截内容
type Lesson struct {
	UUIDBase
	Title    string  `gorm:"size:255;not null" json:"title"`
	No       int     `gorm:"not null" json:"no"`
	Content  *string `gorm:"type:longtext" json:"content"`
	ModuleID string  `gorm:"index;type:varchar(36)" json:"moduleId"`
}

func (Lesson) TableName() string {
	return "lessons"
}
