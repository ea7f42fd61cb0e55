package app

import (
	"course_ai_backend/docs"
	"course_ai_backend/internal/config"
	"course_ai_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// 课程树
		courses := api.Group("/courses")
		{
			courses.GET("", c.course.List)
			courses.POST("", c.course.Create)
			courses.GET("/:courseId", c.course.Get)
			courses.PUT("/:courseId", c.course.Update)
			courses.DELETE("/:courseId", c.course.Delete)
			courses.POST("/:courseId/cover", c.course.GenerateCover)

			lessons := courses.Group("/:courseId/modules/:moduleId/lessons")
			{
				lessons.GET("", c.lesson.List)
				lessons.POST("", c.lesson.Create)
				lessons.GET("/:lessonId", c.lesson.Get)
				lessons.PUT("/:lessonId", c.lesson.Update)
				lessons.DELETE("/:lessonId", c.lesson.Delete)
			}
		}

		// 智能生成
		ai := api.Group("/ai")
		{
			ai.POST("/course", c.generator.Materialize)
			ai.POST("/course/suggestions", c.suggestion.Suggest)
			ai.GET("/course/suggestions", c.suggestion.Autocomplete)
			ai.GET("/course/image", c.generator.CoverImage)
			ai.POST("/course/content", c.lessonContent.Resolve)
			ai.POST("/course/content/cancel", c.lessonContent.Cancel)
		}

		// 搜索历史
		api.GET("/search/history", c.searchHistory.Recent)
		api.POST("/search/history", c.searchHistory.Record)
	}
}
