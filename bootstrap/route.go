package bootstrap

import (
	"net/http"
	"strings"

	"github.com/AlexYAT/vedic-astrologer-bot/app/http/middlewares"
	"github.com/AlexYAT/vedic-astrologer-bot/routes"

	"github.com/gin-gonic/gin"
)

// SetupRoute registers global middleware, the API routes and the 404
// handler.
func SetupRoute(router *gin.Engine) {
	registerGlobalMiddleWare(router)

	routes.RegisterAPIRoutes(router)

	setup404Handler(router)
}

func registerGlobalMiddleWare(router *gin.Engine) {
	router.Use(
		middlewares.Logger(),
		middlewares.Recovery(),
	)
}

func setup404Handler(router *gin.Engine) {
	router.NoRoute(func(c *gin.Context) {
		acceptString := c.Request.Header.Get("Accept")

		if strings.Contains(acceptString, "text/html") {
			c.String(http.StatusNotFound, "404 page not found")
		} else {
			c.JSON(http.StatusNotFound, gin.H{
				"error_code":    404,
				"error_message": "route not defined, check the url and the request method",
			})
		}
	})
}
