package app

import (
	"peer_quiz_backend/docs"
	"peer_quiz_backend/internal/middleware"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/pkg/monitoring"
	"peer_quiz_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	public.Use(middleware.RequestID())
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.RequestID(), middleware.AuthMiddleware(a.secret))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/assignments/:assignmentId/quizzes", c.studentQuiz.ListTakeableQuizzes)
	group.POST("/assignments/:assignmentId/quizzes/:questionnaireId/start", c.studentQuiz.StartQuiz)
	group.GET("/participants/:participantId/quiz-mappings", c.studentQuiz.QuizMappings)
	group.POST("/quiz-maps/:mapId/submit", security.SubmitLimiter(a.Config.RateLimit.SubmitPerMinute), c.studentQuiz.SubmitQuiz)
	group.GET("/quiz-maps/:mapId/result", c.studentQuiz.QuizResult)
}

func (a *App) registerTeacherRoutes(group *gin.RouterGroup, c *controllers) {
	teacher := group.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.GET("/assignments/:assignmentId/quiz-questionnaires", c.studentQuiz.ReviewQuestions)
	}
}
