package knowledge

import (
	"github.com/gin-gonic/gin"
	"github.com/skillpath/core/internal/pkg/response"
)

type Handler struct {
	snap *Snapshot
}

func NewHandler(snap *Snapshot) *Handler {
	return &Handler{snap: snap}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	kb := rg.Group("/knowledge-base")
	kb.GET("/roles", h.listRoles)
	kb.GET("/roles/:name", h.getRole)
	kb.GET("/skills", h.listSkills)
}

func (h *Handler) listRoles(c *gin.Context) {
	response.OK(c, h.snap.All())
}

func (h *Handler) getRole(c *gin.Context) {
	role, err := h.snap.ByName(c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, role)
}

func (h *Handler) listSkills(c *gin.Context) {
	response.OK(c, gin.H{"skills": h.snap.SkillTiers()})
}
