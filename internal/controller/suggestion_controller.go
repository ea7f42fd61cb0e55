package controller

import (
	"course_ai_backend/internal/service"
	"course_ai_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SuggestionController struct {
	Suggestions *service.SuggestionService
}

func NewSuggestionController(suggestions *service.SuggestionService) *SuggestionController {
	return &SuggestionController{Suggestions: suggestions}
}

// Suggest 课程建议
// @Summary 按主题与受众生成 3-5 条课程大纲建议
// @Tags 智能生成
// @Accept json
// @Produce json
// @Param request body service.SuggestionInput true "建议请求"
// @Success 200 {object} util.Response{data=[]service.CourseSuggestion}
// @Failure 400 {object} util.Response
// @Router /api/ai/course/suggestions [post]
func (ctrl *SuggestionController) Suggest(c *gin.Context) {
	var in service.SuggestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	suggestions, err := ctrl.Suggestions.GenerateSuggestions(c.Request.Context(), in)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, suggestions)
}

// Autocomplete 字段补全
// @Summary 为表单字段生成补全候选，结果带缓存
// @Tags 智能生成
// @Produce json
// @Param type query string true "字段名" Enums(subject, audience, verifiedBy)
// @Param q query string true "已输入的前缀"
// @Success 200 {object} util.Response{data=[]string}
// @Failure 400 {object} util.Response
// @Router /api/ai/course/suggestions [get]
func (ctrl *SuggestionController) Autocomplete(c *gin.Context) {
	field := c.DefaultQuery("type", "subject")
	switch field {
	case "subject", "audience", "verifiedBy":
	default:
		util.BadRequest(c, "unsupported field")
		return
	}
	query := c.Query("q")
	if query == "" {
		util.BadRequest(c, "query parameter q is required")
		return
	}

	items, err := ctrl.Suggestions.Autocomplete(c.Request.Context(), field, query)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, items)
}
