package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Embed *EmbedHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Embed.Health)
	api.POST("/embed", deps.Embed.Embed)
	api.POST("/embed_query", deps.Embed.EmbedQuery)
}
