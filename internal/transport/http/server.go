package http

import (
	"github.com/gin-gonic/gin"

	"pdfqa/internal/bootstrap"
	"pdfqa/internal/repository"
	"pdfqa/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	msgRepo := repository.NewQAMessageRepository(app.MySQL)
	documentHandler := handler.NewDocumentHandler(app.DocumentService)
	qaHandler := handler.NewQAHandler(app.QAService, msgRepo)
	streamHandler := handler.NewStreamHandler(app.Sessions)

	v1 := router.Group("/api/v1")
	v1.POST("/documents", documentHandler.Upload)
	v1.GET("/documents", documentHandler.List)
	v1.DELETE("/documents/:id", documentHandler.Delete)

	v1.POST("/ask", qaHandler.Ask)
	v1.GET("/documents/:id/transcript", qaHandler.Transcript)

	v1.GET("/stream", streamHandler.Connect)
	v1.POST("/stream/:client_id/messages", streamHandler.Message)

	return router
}
