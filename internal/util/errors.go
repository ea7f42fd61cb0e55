package util

import "errors"

var (
	ErrValidation         = errors.New("invalid request")
	ErrCourseNotFound     = errors.New("course not found")
	ErrModuleNotInCourse  = errors.New("module not found in this course")
	ErrLessonNotInModule  = errors.New("lesson not found in this module and course")
	ErrInvalidDifficulty  = errors.New("invalid 'level' provided, must be 'beginner', 'intermediate' or 'advanced'")
	ErrInvalidDuration    = errors.New("total duration must be a positive number")
	ErrInvalidModuleCount = errors.New("desired modules must be between 3 and 20")
	ErrGenerationFailed   = errors.New("generation failed")
	ErrEmptyAIResponse    = errors.New("AI returned an empty response")
)
