package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"peer_quiz_backend/internal/config"
	"peer_quiz_backend/internal/controller"
	"peer_quiz_backend/internal/repository"
	"peer_quiz_backend/internal/service"
	"peer_quiz_backend/pkg/configwatcher"
	"peer_quiz_backend/pkg/database"
	"peer_quiz_backend/pkg/logger"
	"peer_quiz_backend/pkg/monitoring"
	"peer_quiz_backend/pkg/security"
	"peer_quiz_backend/pkg/tracing"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)

	// jwtSecret 可被配置热更新替换
	secretMu  sync.RWMutex
	jwtSecret string
}

type repositories struct {
	quiz        *repository.QuizRepository
	responseMap *repository.ResponseMapRepository
}

type services struct {
	studentQuiz *service.StudentQuizService
}

type controllers struct {
	studentQuiz *controller.StudentQuizController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) secret() string {
	a.secretMu.RLock()
	defer a.secretMu.RUnlock()
	return a.jwtSecret
}

func (a *App) setSecret(s string) {
	a.secretMu.Lock()
	a.jwtSecret = s
	a.secretMu.Unlock()
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		quiz:        repository.NewQuizRepository(db),
		responseMap: repository.NewResponseMapRepository(db),
	}
}

// newLocker 启用 Redis 时使用分布式锁，否则使用进程内分段锁
func newLocker(cfg *config.Config, rdb *redis.Client) service.SubmissionLocker {
	if rdb != nil {
		return service.NewRedisLocker(rdb, cfg.Quiz.LockTTL(), cfg.Quiz.LockWait())
	}
	return service.NewLocalLocker(cfg.Quiz.LockWait())
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	return &services{
		studentQuiz: service.NewStudentQuizService(db, repos.quiz, repos.responseMap, newLocker(cfg, rdb)),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		studentQuiz: controller.NewStudentQuizController(s.studentQuiz),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(otel.GetTracerProvider()))
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 根据已打开的数据库组装应用，测试中直接使用
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
		Redis:     rdb,
		jwtSecret: cfg.JWT.Secret,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	app.RegisterConfigCallback(func(c *config.Config) {
		logger.SetMode(c.Server.Mode)
	})
	app.RegisterConfigCallback(func(c *config.Config) {
		if c.JWT.Secret != "" {
			app.setSecret(c.JWT.Secret)
		}
	})

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate || cfg.Server.Mode != "release")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(context.Background(), &cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	// 监控初始化
	monitoring.Init()

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer(cfg.Tracing)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app := New(cfg, db, rdb)
	app.tracer = tp
	return app
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := configwatcher.WatchConfig(ctx, a.ConfigDir, a.applyConfig); err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
