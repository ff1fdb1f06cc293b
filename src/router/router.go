package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xerikson-cyber/Sirij-BOT/src/controller"
	"github.com/xerikson-cyber/Sirij-BOT/src/service"
)

type Router struct {
	Logger       *logrus.Logger
	Conversation *service.ConversationService
	Briefings    *service.BriefingService
}

// SetUpRouter creates the gin.Engine, wires the controllers and
// registers every route.
func (r Router) SetUpRouter() (*gin.Engine, error) {
	router := gin.Default()

	botController := controller.NewBotController(r.Conversation, r.Logger)
	briefingController := controller.NewBriefingController(r.Briefings, r.Logger)

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	bot := router.Group("/bot/:user_id")
	{
		bot.POST("/start", botController.Start)
		bot.POST("/cancel", botController.Cancel)
		bot.POST("/help", botController.Help)
		bot.POST("/message", botController.Message)
		bot.POST("/photo", botController.Photo)
	}

	briefings := router.Group("/briefings")
	{
		briefings.GET("/stats", briefingController.Statistics)
		briefings.GET("/export", briefingController.ExportCSV)
		briefings.GET("/user/:user_id", briefingController.ListByUser)
		briefings.GET("/:id", briefingController.GetByID)
		briefings.GET("/:id/report", briefingController.TextReport)
	}

	return router, nil
}
