package controller

import (
	"errors"
	"net/http"

	"course_ai_backend/internal/service"
	"course_ai_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseGeneratorController struct {
	Generator *service.CourseGeneratorService
	Images    *service.ImageService
}

func NewCourseGeneratorController(generator *service.CourseGeneratorService, images *service.ImageService) *CourseGeneratorController {
	return &CourseGeneratorController{Generator: generator, Images: images}
}

// Materialize 生成课程
// @Summary 生成完整课程结构并落库，返回持久化后的课程树
// @Tags 智能生成
// @Accept json
// @Produce json
// @Param request body service.CurriculumInput true "课程物化请求"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/ai/course [post]
func (ctrl *CourseGeneratorController) Materialize(c *gin.Context) {
	var in service.CurriculumInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	course, err := ctrl.Generator.Materialize(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrValidation),
			errors.Is(err, util.ErrInvalidDifficulty),
			errors.Is(err, util.ErrInvalidDuration),
			errors.Is(err, util.ErrInvalidModuleCount):
			util.BadRequest(c, err.Error())
		case errors.Is(err, util.ErrGenerationFailed):
			// 带上游错误信息返回
			util.Error(c, http.StatusInternalServerError, err.Error())
		default:
			util.LogInternalError(c, err)
		}
		return
	}
	util.Created(c, course)
}

// CoverImage 生成封面图
// @Summary 按标题生成封面图并存入对象存储，返回图片地址
// @Tags 智能生成
// @Produce json
// @Param q query string true "课程标题"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/ai/course/image [get]
func (ctrl *CourseGeneratorController) CoverImage(c *gin.Context) {
	title := c.Query("q")
	if title == "" {
		util.BadRequest(c, "query parameter q is required")
		return
	}

	url, err := ctrl.Images.GenerateCoverImage(c.Request.Context(), title)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, gin.H{"imageUrl": url})
}
