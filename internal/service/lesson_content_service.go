package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"course_ai_backend/internal/model"
	"course_ai_backend/internal/util"
	"course_ai_backend/pkg/logger"
	"course_ai_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const lessonContentSystemPrompt = "You are an expert writer and expert instructor. " +
	"Your task is to develop comprehensive lesson content for a specific topic within a course."

// GenerationRequest 课时内容生成请求载荷，可选上下文用指针显式建模，
// 不在字符串拼接里做分支
type GenerationRequest struct {
	Level               string  `json:"level"`
	VerifiedBy          string  `json:"verifiedBy"`
	CourseTitle         string  `json:"courseTitle"`
	ModuleNo            int     `json:"moduleNo"`
	ModuleTitle         string  `json:"moduleTitle"`
	ModuleDesc          string  `json:"moduleDesc"`
	PreviousLessonNo    *int    `json:"previousLessonNo,omitempty"`
	PreviousLessonTitle *string `json:"previousLessonTitle,omitempty"`
	LessonNo            int     `json:"lessonNo"`
	LessonTitle         string  `json:"lessonTitle"`
	Lang                string  `json:"lang"`
	Format              string  `json:"format"`
}

// BuildGenerationRequest 纯函数：由已加载的实体组装生成请求
func BuildGenerationRequest(course *model.Course, module *model.CourseModule, lesson *model.Lesson, prev *model.Lesson) GenerationRequest {
	req := GenerationRequest{
		Level:       string(course.DifficultyLevel),
		VerifiedBy:  course.VerifiedBy,
		CourseTitle: course.Title,
		ModuleNo:    module.No,
		ModuleTitle: module.Title,
		ModuleDesc:  module.Description,
		LessonNo:    lesson.No,
		LessonTitle: lesson.Title,
		Lang:        course.Language,
		Format:      "markdown",
	}
	if prev != nil {
		no := prev.No
		title := prev.Title
		req.PreviousLessonNo = &no
		req.PreviousLessonTitle = &title
	}
	return req
}

func (r GenerationRequest) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Develop comprehensive lesson content for a %s-level course.\n", r.Level)
	fmt.Fprintf(&b, "Strictly the course is verified by %s.\n", r.VerifiedBy)
	fmt.Fprintf(&b, "Course Context: this lesson belongs to the \"%s\" course.\n", r.CourseTitle)
	fmt.Fprintf(&b, "Module Context: this lesson is part of module no. %d, \"%s\", which focuses on mastering %s.\n",
		r.ModuleNo, r.ModuleTitle, r.ModuleDesc)
	if r.PreviousLessonNo != nil && r.PreviousLessonTitle != nil {
		fmt.Fprintf(&b, "Continuity: it builds upon lesson %d, \"%s\".\n", *r.PreviousLessonNo, *r.PreviousLessonTitle)
	}
	fmt.Fprintf(&b, "Lesson No: %d\n", r.LessonNo)
	fmt.Fprintf(&b, "Lesson Title: %s\n", r.LessonTitle)
	fmt.Fprintf(&b, "Language: %s\n", r.Lang)
	fmt.Fprintf(&b, "Format Output: %s, using clear headings, bullet points, and code blocks where appropriate for conceptual examples.\n", r.Format)
	b.WriteString("(Strictly only for syntax mermaid): for charts, graphs, or architectural designs, use Mermaid version 10.9.3 in code blocks and strictly follow mermaid.js.org/syntax rules.\n")
	b.WriteString("Strictly answer with only the lesson content.")
	return b.String()
}

// ContentUpdate 一次发射：Text 为到目前为止的累计全文，只增不减
type ContentUpdate struct {
	Text   string `json:"text"`
	Cached bool   `json:"cached"`
	Done   bool   `json:"done"`
}

type contentGenerator interface {
	ChatStream(ctx context.Context, system, prompt string) (<-chan string, <-chan error)
}

type lessonStore interface {
	FindByIdentity(ctx context.Context, courseID, moduleID, lessonID string) (*model.Lesson, error)
	UpdateContent(ctx context.Context, lessonID, title, content string) (*model.Lesson, error)
}

// generationSession 一次飞行中的内容解析，随完成/出错/被顶替销毁
type generationSession struct {
	lessonID string
	cancel   context.CancelFunc
}

// LessonContentService 课时内容缓存/生成控制器。
// 同一实例同时最多一个活跃会话：新请求先取消旧会话再启动，
// 被取消的会话丢弃累计缓冲且不落库。
type LessonContentService struct {
	lessons lessonStore
	ai      contentGenerator

	mu     sync.Mutex
	active *generationSession

	persistWG sync.WaitGroup
}

func NewLessonContentService(lessons lessonStore, ai contentGenerator) *LessonContentService {
	return &LessonContentService{
		lessons: lessons,
		ai:      ai,
	}
}

// CancelActive 取消当前活跃会话，幂等，无会话时是空操作
func (s *LessonContentService) CancelActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.cancel()
		s.active = nil
	}
}

// ResolveContent 解析课时内容：已有内容直接整篇返回；否则按三元组回查仓储，
// 仍未命中才发起生成流。发射值是累计全文。生成成功后异步落库，调用方不等待。
// 传入的实体必须已完整加载。
func (s *LessonContentService) ResolveContent(ctx context.Context, course *model.Course, module *model.CourseModule, lesson *model.Lesson, prev *model.Lesson) (<-chan ContentUpdate, <-chan error) {
	sctx, cancel := context.WithCancel(ctx)
	sess := &generationSession{lessonID: lesson.ID, cancel: cancel}

	s.mu.Lock()
	if s.active != nil {
		// 顶替：先取消旧会话，保证同一时刻至多一条生成流
		s.active.cancel()
	}
	s.active = sess
	s.mu.Unlock()

	out := make(chan ContentUpdate)
	errChan := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errChan)
		defer s.clearSession(sess)
		defer cancel()

		// 1. 实体自带内容，直接命中
		if lesson.Content != nil && *lesson.Content != "" {
			s.emitCached(sctx, out, *lesson.Content)
			return
		}

		// 2. 内存视图可能过期，按身份回查一次仓储
		fresh, err := s.lessons.FindByIdentity(sctx, module.CourseID, module.ID, lesson.ID)
		if err == nil && fresh.Content != nil && *fresh.Content != "" {
			s.emitCached(sctx, out, *fresh.Content)
			return
		}
		if sctx.Err() != nil {
			s.traceCancelled(lesson.ID)
			return
		}

		// 3. 发起生成流
		req := BuildGenerationRequest(course, module, lesson, prev)
		start := time.Now()
		stream, streamErr := s.ai.ChatStream(sctx, lessonContentSystemPrompt, req.Prompt())

		var buf strings.Builder
		for chunk := range stream {
			buf.WriteString(chunk)
			select {
			case out <- ContentUpdate{Text: buf.String()}:
			case <-sctx.Done():
				s.traceCancelled(lesson.ID)
				monitoring.GenerationCounter.WithLabelValues("cancelled").Inc()
				return
			}
		}

		if err := <-streamErr; err != nil {
			if sctx.Err() != nil {
				// 取消不是错误，半截缓冲直接丢弃
				s.traceCancelled(lesson.ID)
				monitoring.GenerationCounter.WithLabelValues("cancelled").Inc()
				return
			}
			monitoring.GenerationCounter.WithLabelValues("failed").Inc()
			errChan <- fmt.Errorf("%w: %v", util.ErrGenerationFailed, err)
			return
		}
		if sctx.Err() != nil {
			s.traceCancelled(lesson.ID)
			monitoring.GenerationCounter.WithLabelValues("cancelled").Inc()
			return
		}

		monitoring.GenerationDuration.Observe(time.Since(start).Seconds())

		final := buf.String()
		if final == "" {
			monitoring.GenerationCounter.WithLabelValues("empty").Inc()
			select {
			case out <- ContentUpdate{Text: "", Done: true}:
			case <-sctx.Done():
			}
			return
		}

		// 4. 异步落库：调用方不等待，失败只记日志（用户已经拿到内容）
		s.persistWG.Add(1)
		go s.persist(lesson.ID, req.LessonTitle, final)
		monitoring.GenerationCounter.WithLabelValues("generated").Inc()

		select {
		case out <- ContentUpdate{Text: final, Done: true}:
		case <-sctx.Done():
		}
	}()

	return out, errChan
}

func (s *LessonContentService) emitCached(ctx context.Context, out chan<- ContentUpdate, content string) {
	monitoring.GenerationCounter.WithLabelValues("cached").Inc()
	select {
	case out <- ContentUpdate{Text: content, Cached: true, Done: true}:
	case <-ctx.Done():
	}
}

func (s *LessonContentService) clearSession(sess *generationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == sess {
		s.active = nil
	}
}

func (s *LessonContentService) traceCancelled(lessonID string) {
	logger.Log.Debug("generation session cancelled", zap.String("lessonId", lessonID))
}

func (s *LessonContentService) persist(lessonID, title, content string) {
	defer s.persistWG.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.lessons.UpdateContent(ctx, lessonID, title, content); err != nil {
		logger.Log.Error("failed to persist generated lesson content",
			zap.String("lessonId", lessonID), zap.Error(err))
	}
}
