package controller

import (
	"net/http"

	"course_ai_backend/internal/model"
	"course_ai_backend/internal/service"
	"course_ai_backend/internal/util"
	"course_ai_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LessonContentController struct {
	Courses *service.CourseService
	Lessons *service.LessonService
	Content *service.LessonContentService
}

func NewLessonContentController(courses *service.CourseService, lessons *service.LessonService, content *service.LessonContentService) *LessonContentController {
	return &LessonContentController{Courses: courses, Lessons: lessons, Content: content}
}

type contentRequest struct {
	CourseID         string `json:"courseId" binding:"required"`
	ModuleID         string `json:"moduleId" binding:"required"`
	LessonID         string `json:"lessonId" binding:"required"`
	PreviousLessonID string `json:"previousLessonId"`
}

// Resolve 解析课时正文
// @Summary 已生成的正文整篇返回，未生成的以 text/plain 分块流式输出
// @Description 响应体是纯文本增量流。同一服务实例同时只保留一条生成流，新请求会顶替旧的。
// @Tags 智能生成
// @Accept json
// @Produce plain
// @Param request body contentRequest true "课时定位"
// @Success 200 {string} string "课时正文"
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/ai/course/content [post]
func (ctrl *LessonContentController) Resolve(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	course, err := ctrl.Courses.Get(req.CourseID)
	if err != nil {
		lessonError(c, err)
		return
	}

	module := findModule(course, req.ModuleID)
	if module == nil {
		util.NotFound(c, "Module not found in course")
		return
	}

	lesson, err := ctrl.Lessons.Get(ctx, req.CourseID, req.ModuleID, req.LessonID)
	if err != nil {
		lessonError(c, err)
		return
	}

	var prev *model.Lesson
	if req.PreviousLessonID != "" {
		prev, err = ctrl.Lessons.Get(ctx, req.CourseID, req.ModuleID, req.PreviousLessonID)
		if err != nil {
			lessonError(c, err)
			return
		}
	}

	updates, errChan := ctrl.Content.ResolveContent(ctx, course, module, lesson, prev)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	// 服务端发射累计全文，线上只写增量
	sent := 0
	for upd := range updates {
		if len(upd.Text) > sent {
			if _, err := c.Writer.WriteString(upd.Text[sent:]); err != nil {
				return
			}
			sent = len(upd.Text)
			c.Writer.Flush()
		}
	}

	if err := <-errChan; err != nil {
		if sent == 0 {
			util.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
		// 已经写出部分正文，状态行无法收回，只能记日志
		logger.Log.Error("content stream failed mid-flight",
			zap.String("lessonId", req.LessonID), zap.Error(err))
	}
}

// Cancel 取消生成
// @Summary 取消当前活跃的生成流，无活跃流时为空操作
// @Tags 智能生成
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/ai/course/content/cancel [post]
func (ctrl *LessonContentController) Cancel(c *gin.Context) {
	ctrl.Content.CancelActive()
	util.Success(c, nil)
}

func findModule(course *model.Course, moduleID string) *model.CourseModule {
	for i := range course.Modules {
		if course.Modules[i].ID == moduleID {
			return &course.Modules[i]
		}
	}
	return nil
}
