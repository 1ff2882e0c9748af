package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillpath/core/internal/modules/course"
	"github.com/skillpath/core/internal/modules/knowledge"
	"github.com/skillpath/core/internal/modules/matcher"
	"github.com/skillpath/core/internal/pkg/response"
)

func (a *App) registerRoutes(snap *knowledge.Snapshot, skillMatcher *matcher.Matcher, orchestrator *course.Orchestrator) {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFoundMsg(c, "not found")
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	api := r.Group("/api")

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "pong"})
	})

	knowledge.NewHandler(snap).RegisterRoutes(api)
	matcher.NewHandler(
		skillMatcher,
		matcher.NewGapAnalyzer(snap),
		matcher.NewAdvisor(snap),
	).RegisterRoutes(api)
	course.NewHandler(orchestrator).RegisterRoutes(api)
}
