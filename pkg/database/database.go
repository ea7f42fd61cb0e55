package database

import (
	"fmt"
	"log"

	"course_ai_backend/internal/config"
	"course_ai_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

// Migrate 建表顺序按外键依赖：课程 → 章节 → 课时
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Course{},
		&model.LearningObjective{},
		&model.SkillGained{},
		&model.CourseModule{},
		&model.Lesson{},
	)
}
