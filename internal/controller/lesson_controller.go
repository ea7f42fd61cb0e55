package controller

import (
	"errors"

	"course_ai_backend/internal/service"
	"course_ai_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	Lessons *service.LessonService
}

func NewLessonController(lessons *service.LessonService) *LessonController {
	return &LessonController{Lessons: lessons}
}

func lessonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCourseNotFound):
		util.NotFound(c, "Course not found")
	case errors.Is(err, util.ErrModuleNotInCourse):
		util.NotFound(c, "Module not found in course")
	case errors.Is(err, util.ErrLessonNotInModule):
		util.NotFound(c, "Lesson not found in module")
	default:
		util.LogInternalError(c, err)
	}
}

// List 模块课时列表
// @Summary 按序号列出模块内全部课时
// @Tags 课时
// @Produce json
// @Param courseId path string true "课程 ID"
// @Param moduleId path string true "模块 ID"
// @Success 200 {object} util.Response{data=[]model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons [get]
func (ctrl *LessonController) List(c *gin.Context) {
	lessons, err := ctrl.Lessons.List(c.Request.Context(), c.Param("courseId"), c.Param("moduleId"))
	if err != nil {
		lessonError(c, err)
		return
	}
	util.Success(c, lessons)
}

type createLessonRequest struct {
	Title string `json:"title" binding:"required"`
}

// Create 新增课时
// @Summary 在模块末尾追加课时，序号自动分配
// @Tags 课时
// @Accept json
// @Produce json
// @Param courseId path string true "课程 ID"
// @Param moduleId path string true "模块 ID"
// @Param lesson body createLessonRequest true "课时"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons [post]
func (ctrl *LessonController) Create(c *gin.Context) {
	var req createLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	lesson, err := ctrl.Lessons.Create(c.Request.Context(), c.Param("courseId"), c.Param("moduleId"), req.Title)
	if err != nil {
		lessonError(c, err)
		return
	}
	util.Created(c, lesson)
}

// Get 课时详情
// @Summary 查询课时，含已生成的正文
// @Tags 课时
// @Produce json
// @Param courseId path string true "课程 ID"
// @Param moduleId path string true "模块 ID"
// @Param lessonId path string true "课时 ID"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons/{lessonId} [get]
func (ctrl *LessonController) Get(c *gin.Context) {
	lesson, err := ctrl.Lessons.Get(c.Request.Context(),
		c.Param("courseId"), c.Param("moduleId"), c.Param("lessonId"))
	if err != nil {
		lessonError(c, err)
		return
	}
	util.Success(c, lesson)
}

type updateLessonRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}

// Update 更新课时
// @Summary 覆盖课时正文，可同时改标题
// @Tags 课时
// @Accept json
// @Produce json
// @Param courseId path string true "课程 ID"
// @Param moduleId path string true "模块 ID"
// @Param lessonId path string true "课时 ID"
// @Param lesson body updateLessonRequest true "课时"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons/{lessonId} [put]
func (ctrl *LessonController) Update(c *gin.Context) {
	var req updateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	lesson, err := ctrl.Lessons.UpdateContent(c.Request.Context(),
		c.Param("courseId"), c.Param("moduleId"), c.Param("lessonId"), req.Title, req.Content)
	if err != nil {
		lessonError(c, err)
		return
	}
	util.Success(c, lesson)
}

// Delete 删除课时
// @Summary 删除课时
// @Tags 课时
// @Produce json
// @Param courseId path string true "课程 ID"
// @Param moduleId path string true "模块 ID"
// @Param lessonId path string true "课时 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/modules/{moduleId}/lessons/{lessonId} [delete]
func (ctrl *LessonController) Delete(c *gin.Context) {
	err := ctrl.Lessons.Delete(c.Request.Context(),
		c.Param("courseId"), c.Param("moduleId"), c.Param("lessonId"))
	if err != nil {
		lessonError(c, err)
		return
	}
	util.Success(c, nil)
}
