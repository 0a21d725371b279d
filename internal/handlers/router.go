package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/services"
	"github.com/inedit/inedit-service/internal/utils"
)

type HandlerManager struct {
	serviceManager  services.ServiceManager
	accountHandler  *AccountHandler
	bancaHandler    *BancaHandler
	sourceHandler   *SourceHandler
	questionHandler *QuestionHandler
	statsHandler    *StatsHandler
	authMiddleware  *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	identity repositories.IdentityRepository,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:  serviceManager,
		accountHandler:  NewAccountHandler(serviceManager.Account(), logger),
		bancaHandler:    NewBancaHandler(serviceManager.Banca(), logger),
		sourceHandler:   NewSourceHandler(serviceManager.Source(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), serviceManager.Generation(), serviceManager.Answer(), logger),
		statsHandler:    NewStatsHandler(serviceManager.Stats(), logger),
		authMiddleware:  NewCasdoorAuthMiddleware(identity, serviceManager.Account(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		me := v1.Group("/me")
		{
			me.GET("/generation-status", hm.accountHandler.GetGenerationStatus)
			me.GET("/questions", hm.questionHandler.ListMyQuestions)
			me.GET("/tags", hm.questionHandler.ListMyTags)
		}

		bancas := v1.Group("/bancas")
		{
			bancas.GET("", hm.bancaHandler.ListBancas)
			bancas.GET("/:id", hm.bancaHandler.GetBanca)
			bancas.GET("/:id/tags", hm.questionHandler.ListBancaTags)

			// Sources
			bancas.GET("/:id/sources", hm.sourceHandler.ListSources)
			bancas.POST("/:id/sources", hm.sourceHandler.CreateSource)
			bancas.POST("/:id/sources/upload", hm.sourceHandler.UploadSource)
			bancas.DELETE("/:id/sources/:sourceId", hm.sourceHandler.DeleteSource)

			// Questions
			bancas.GET("/:id/questions", hm.questionHandler.ListQuestions)
			bancas.POST("/:id/questions", hm.questionHandler.GenerateQuestions)
			bancas.POST("/:id/questions/drafts/publish", hm.questionHandler.PublishDrafts)
			bancas.POST("/:id/questions/drafts/discard", hm.questionHandler.DiscardDrafts)
			bancas.GET("/:id/questions/:questionId", hm.questionHandler.GetQuestion)
			bancas.DELETE("/:id/questions/:questionId", hm.questionHandler.DeleteQuestion)

			// Answers
			bancas.POST("/:id/questions/:questionId/answers", hm.questionHandler.SubmitAnswer)
			bancas.GET("/:id/questions/:questionId/answers", hm.questionHandler.GetAnswerHistory)

			// Stats
			bancas.GET("/:id/stats", hm.statsHandler.GetBancaStats)
			bancas.GET("/:id/stats/export", hm.statsHandler.ExportBancaStats)
		}

		// Admin only
		admin := v1.Group("/admin")
		admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.GET("/users", hm.accountHandler.ListUsers)
			admin.PATCH("/users/:id/role", hm.accountHandler.UpdateRole)
			admin.PATCH("/users/:id/credits", hm.accountHandler.UpdateCredits)
			admin.POST("/bancas", hm.bancaHandler.CreateBanca)
			admin.PATCH("/bancas/:id", hm.bancaHandler.UpdateBanca)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "inedit-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "inedit-service",
		})
	})
}
