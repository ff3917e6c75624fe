package handlers

import "github.com/gin-gonic/gin"

const apiVersion = "1.0.0"

// Root handles GET / with service metadata.
func Root(c *gin.Context) {
	RespondOK(c, gin.H{
		"message": "Healthcare Pricing API",
		"version": apiVersion,
		"endpoints": gin.H{
			"GET /providers": "Search providers by DRG, ZIP, and radius",
			"POST /ask":      "AI assistant for natural language queries",
		},
	})
}
