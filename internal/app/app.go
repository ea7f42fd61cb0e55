package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course_ai_backend/internal/config"
	"course_ai_backend/internal/controller"
	"course_ai_backend/internal/repository"
	"course_ai_backend/internal/service"
	"course_ai_backend/pkg/database"
	"course_ai_backend/pkg/logger"
	"course_ai_backend/pkg/monitoring"
	"course_ai_backend/pkg/security"
	"course_ai_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	course        *repository.CourseRepository
	lesson        *repository.LessonRepository
	searchHistory *repository.SearchHistoryRepository
}

type services struct {
	ai            *service.AIService
	storage       *service.StorageService
	course        *service.CourseService
	lesson        *service.LessonService
	suggestion    *service.SuggestionService
	generator     *service.CourseGeneratorService
	lessonContent *service.LessonContentService
	image         *service.ImageService
	searchHistory *service.SearchHistoryService
}

type controllers struct {
	course        *controller.CourseController
	lesson        *controller.LessonController
	suggestion    *controller.SuggestionController
	generator     *controller.CourseGeneratorController
	lessonContent *controller.LessonContentController
	searchHistory *controller.SearchHistoryController
	health        *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 把热重载后的配置分发给已注册的回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		course:        repository.NewCourseRepository(db),
		lesson:        repository.NewLessonRepository(db),
		searchHistory: repository.NewSearchHistoryRepository(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)
	s.storage = service.NewStorageService(cfg)
	s.course = service.NewCourseService(repos.course)
	s.lesson = service.NewLessonService(repos.lesson)
	s.suggestion = service.NewSuggestionService(s.ai, rdb, cfg.AI)
	s.generator = service.NewCourseGeneratorService(s.ai, repos.course)
	s.lessonContent = service.NewLessonContentService(repos.lesson, s.ai)
	s.image = service.NewImageService(s.ai, s.storage, repos.course)
	s.searchHistory = service.NewSearchHistoryService(repos.searchHistory)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		course:        controller.NewCourseController(s.course, s.image),
		lesson:        controller.NewLessonController(s.lesson),
		suggestion:    controller.NewSuggestionController(s.suggestion),
		generator:     controller.NewCourseGeneratorController(s.generator, s.image),
		lessonContent: controller.NewLessonContentController(s.course, s.lesson, s.lessonContent),
		searchHistory: controller.NewSearchHistoryController(s.searchHistory),
		health:        controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// release 模式不自动迁移，除非显式带 -migrate 标志
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Log.Info("Database migration completed")
	}
	if cfg.MigrateOnly {
		os.Exit(0)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("course-ai-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
