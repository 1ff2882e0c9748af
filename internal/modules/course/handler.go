package course

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skillpath/core/internal/pkg/response"
)

type Handler struct {
	orchestrator *Orchestrator
}

func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/courses", h.createCourse)
	rg.GET("/courses/:outlineId", h.getCourse)
	rg.POST("/courses/:outlineId/weeks/:week", h.expandWeek)
	rg.POST("/courses/:outlineId/weeks/:week/days/:day", h.expandDay)
}

type createCourseDTO struct {
	Skills     []string `json:"skills"      binding:"required"`
	TargetRole string   `json:"target_role" binding:"required"`
}

func (h *Handler) createCourse(c *gin.Context) {
	var dto createCourseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	outline, err := h.orchestrator.RequestOutline(c.Request.Context(), dto.Skills, dto.TargetRole)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, outline)
}

func (h *Handler) getCourse(c *gin.Context) {
	outline, err := h.orchestrator.Outline(c.Request.Context(), c.Param("outlineId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, outline)
}

func (h *Handler) expandWeek(c *gin.Context) {
	week, ok := pathNumber(c, "week")
	if !ok {
		return
	}

	detail, err := h.orchestrator.ExpandWeek(c.Request.Context(), c.Param("outlineId"), week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

func (h *Handler) expandDay(c *gin.Context) {
	week, ok := pathNumber(c, "week")
	if !ok {
		return
	}
	day, ok := pathNumber(c, "day")
	if !ok {
		return
	}

	detail, err := h.orchestrator.ExpandDay(c.Request.Context(), c.Param("outlineId"), week, day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

func pathNumber(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value < 1 {
		response.BadRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return value, true
}
