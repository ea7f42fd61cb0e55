package controller

import (
	"course_ai_backend/internal/service"
	"course_ai_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SearchHistoryController struct {
	History *service.SearchHistoryService
}

func NewSearchHistoryController(history *service.SearchHistoryService) *SearchHistoryController {
	return &SearchHistoryController{History: history}
}

// clientID 优先取显式查询参数，退回到前端放在头里的匿名标识
func clientID(c *gin.Context) string {
	if cid := c.Query("cid"); cid != "" {
		return cid
	}
	return c.GetHeader("X-Client-ID")
}

// Recent 最近搜索
// @Summary 返回该客户端最近 5 条搜索词，最新在前
// @Tags 搜索
// @Produce json
// @Param cid query string false "客户端标识，缺省取 X-Client-ID 头"
// @Success 200 {object} util.Response{data=[]string}
// @Failure 400 {object} util.Response
// @Router /api/search/history [get]
func (ctrl *SearchHistoryController) Recent(c *gin.Context) {
	cid := clientID(c)
	if cid == "" {
		util.BadRequest(c, "client id is required")
		return
	}

	terms, err := ctrl.History.Recent(c.Request.Context(), cid)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, terms)
}

type recordSearchRequest struct {
	Term string `json:"term" binding:"required"`
}

// Record 记录搜索词
// @Summary 记录一次搜索，去重并只保留最近 5 条
// @Tags 搜索
// @Accept json
// @Produce json
// @Param cid query string false "客户端标识，缺省取 X-Client-ID 头"
// @Param request body recordSearchRequest true "搜索词"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/search/history [post]
func (ctrl *SearchHistoryController) Record(c *gin.Context) {
	cid := clientID(c)
	if cid == "" {
		util.BadRequest(c, "client id is required")
		return
	}

	var req recordSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	if err := ctrl.History.Record(c.Request.Context(), cid, req.Term); err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, nil)
}
