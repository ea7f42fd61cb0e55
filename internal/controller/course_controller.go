package controller

import (
	"errors"
	"strconv"

	"course_ai_backend/internal/repository"
	"course_ai_backend/internal/service"
	"course_ai_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	Courses *service.CourseService
	Images  *service.ImageService
}

func NewCourseController(courses *service.CourseService, images *service.ImageService) *CourseController {
	return &CourseController{Courses: courses, Images: images}
}

// List 课程列表
// @Summary 分页查询课程
// @Tags 课程
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Param sortBy query string false "排序字段" Enums(createdAt, updatedAt, title, totalDuration, difficultyLevel)
// @Param sortOrder query string false "排序方向" Enums(asc, desc)
// @Param difficulty query string false "难度过滤，all 表示不过滤"
// @Param language query string false "语言过滤，all 表示不过滤"
// @Param search query string false "按标题/描述/技能搜索"
// @Success 200 {object} util.PageResponse
// @Router /api/courses [get]
func (ctrl *CourseController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	q := repository.CourseListQuery{
		Page:       page,
		Limit:      limit,
		SortBy:     c.DefaultQuery("sortBy", "createdAt"),
		SortOrder:  c.DefaultQuery("sortOrder", "desc"),
		Difficulty: c.Query("difficulty"),
		Language:   c.Query("language"),
		Search:     c.Query("search"),
	}

	courses, total, err := ctrl.Courses.List(q)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	c.JSON(200, util.PageResponse{
		Data:       courses,
		Pagination: util.NewPagination(total, q.Page, q.Limit),
	})
}

// Create 创建课程
// @Summary 手工创建课程（含模块与课时标题）
// @Tags 课程
// @Accept json
// @Produce json
// @Param course body service.CourseInput true "课程"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Router /api/courses [post]
func (ctrl *CourseController) Create(c *gin.Context) {
	var in service.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	course, err := ctrl.Courses.Create(in)
	if err != nil {
		if errors.Is(err, util.ErrInvalidDifficulty) {
			util.BadRequest(c, err.Error())
			return
		}
		util.LogInternalError(c, err)
		return
	}
	util.Created(c, course)
}

// Get 课程详情
// @Summary 查询单个课程，包含模块与课时标题（不含课时正文）
// @Tags 课程
// @Produce json
// @Param courseId path string true "课程 ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId} [get]
func (ctrl *CourseController) Get(c *gin.Context) {
	course, err := ctrl.Courses.Get(c.Param("courseId"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(c, "Course not found")
			return
		}
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, course)
}

// Update 更新课程
// @Summary 更新课程标量字段与学习目标/技能集合
// @Tags 课程
// @Accept json
// @Produce json
// @Param courseId path string true "课程 ID"
// @Param course body service.CourseUpdateInput true "课程"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId} [put]
func (ctrl *CourseController) Update(c *gin.Context) {
	var in service.CourseUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	course, err := ctrl.Courses.Update(c.Param("courseId"), in)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(c, "Course not found")
		case errors.Is(err, util.ErrInvalidDifficulty):
			util.BadRequest(c, err.Error())
		default:
			util.LogInternalError(c, err)
		}
		return
	}
	util.Success(c, course)
}

// Delete 删除课程
// @Summary 删除课程及其全部模块、课时、目标与技能
// @Tags 课程
// @Produce json
// @Param courseId path string true "课程 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId} [delete]
func (ctrl *CourseController) Delete(c *gin.Context) {
	if err := ctrl.Courses.Delete(c.Param("courseId")); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(c, "Course not found")
			return
		}
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, nil)
}

// GenerateCover 生成课程封面
// @Summary 用图像模型生成封面并写回课程
// @Tags 课程
// @Produce json
// @Param courseId path string true "课程 ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/cover [post]
func (ctrl *CourseController) GenerateCover(c *gin.Context) {
	course, err := ctrl.Images.GenerateCover(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(c, "Course not found")
			return
		}
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, course)
}
