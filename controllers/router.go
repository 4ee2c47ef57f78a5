package controllers

import (
	"github.com/gin-gonic/gin"
)

type Router struct {
	HealthController    *HealthController
	DocumentsController *DocumentsController
	ChatController      *ChatController
}

func (r Router) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", r.HealthController.Status)

	api := router.Group("/api")

	//
	// Documents
	//
	api.POST("/upload", r.DocumentsController.Upload)
	api.GET("/documents", r.DocumentsController.GetDocuments)
	api.GET("/documents/:id", r.DocumentsController.GetDocument)
	api.PATCH("/documents/:id", r.DocumentsController.PatchDocument)
	api.DELETE("/documents/:id", r.DocumentsController.DeleteDocument)

	//
	// Chat
	//
	api.POST("/chat", r.ChatController.PostChat)
	api.GET("/chat/history", r.ChatController.GetHistory)
	api.DELETE("/chat/history", r.ChatController.ClearHistory)
}
