package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"course_ai_backend/internal/config"
	"course_ai_backend/internal/model"
	"course_ai_backend/internal/repository"
	"course_ai_backend/internal/service"
	"course_ai_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupContentRouter(t *testing.T, aiBaseURL string) (*gin.Engine, *gorm.DB, *model.Course) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	course := &model.Course{
		Title:           "Go Fundamentals",
		Language:        "en",
		DifficultyLevel: model.Beginner,
		VerifiedBy:      "edX",
		Modules: []model.CourseModule{
			{Title: "Basics", No: 1, Lessons: []model.Lesson{
				{Title: "Intro", No: 1},
			}},
		},
	}
	if err := courseRepo.Create(course); err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}

	ai := service.NewAIService(config.AIConfig{BaseURL: aiBaseURL, APIKey: "test-key", Model: "test-model"})
	ctrl := NewLessonContentController(
		service.NewCourseService(courseRepo),
		service.NewLessonService(lessonRepo),
		service.NewLessonContentService(lessonRepo, ai),
	)

	router := gin.New()
	router.POST("/api/ai/course/content", ctrl.Resolve)
	router.POST("/api/ai/course/content/cancel", ctrl.Cancel)
	return router, db, course
}

func sseUpstream(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, c := range chunks {
			payload, _ := json.Marshal(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"delta": map[string]string{"content": c}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func postContent(router *gin.Engine, body map[string]string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/api/ai/course/content", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestResolveStreamsPlainTextAndPersists(t *testing.T) {
	upstream := sseUpstream(t, []string{"# Intro\n", "Welcome to ", "the course."})
	defer upstream.Close()

	router, db, course := setupContentRouter(t, upstream.URL)
	module := course.Modules[0]
	lesson := module.Lessons[0]

	w := postContent(router, map[string]string{
		"courseId": course.ID,
		"moduleId": module.ID,
		"lessonId": lesson.ID,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	want := "# Intro\nWelcome to the course."
	if w.Body.String() != want {
		t.Fatalf("streamed body mismatch: %q", w.Body.String())
	}

	// 落库是异步的，轮询等待
	deadline := time.After(5 * time.Second)
	for {
		var got model.Lesson
		if err := db.First(&got, "id = ?", lesson.ID).Error; err == nil &&
			got.Content != nil && *got.Content == want {
			return
		}
		select {
		case <-deadline:
			t.Fatal("generated content was never persisted")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestResolveReturnsCachedContentWithoutUpstream(t *testing.T) {
	// 上游地址故意不可用：缓存命中不应发起任何请求
	router, db, course := setupContentRouter(t, "http://127.0.0.1:1")
	module := course.Modules[0]
	lesson := module.Lessons[0]

	cached := "already here"
	if err := db.Model(&model.Lesson{}).Where("id = ?", lesson.ID).
		Update("content", cached).Error; err != nil {
		t.Fatalf("failed to seed content: %v", err)
	}

	w := postContent(router, map[string]string{
		"courseId": course.ID,
		"moduleId": module.ID,
		"lessonId": lesson.ID,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != cached {
		t.Fatalf("expected cached content, got %q", w.Body.String())
	}
}

func TestResolveUnknownLessonIs404(t *testing.T) {
	router, _, course := setupContentRouter(t, "http://127.0.0.1:1")

	w := postContent(router, map[string]string{
		"courseId": course.ID,
		"moduleId": course.Modules[0].ID,
		"lessonId": "missing",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestResolveFailureBeforeFirstByteIsError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	router, _, course := setupContentRouter(t, upstream.URL)

	w := postContent(router, map[string]string{
		"courseId": course.ID,
		"moduleId": course.Modules[0].ID,
		"lessonId": course.Modules[0].Lessons[0].ID,
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCancelWithoutActiveSessionIsNoop(t *testing.T) {
	router, _, _ := setupContentRouter(t, "http://127.0.0.1:1")

	req := httptest.NewRequest("POST", "/api/ai/course/content/cancel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel must be idempotent, got %d", w.Code)
	}
}
