package matcher

import (
	"github.com/gin-gonic/gin"
	"github.com/skillpath/core/internal/pkg/response"
)

type Handler struct {
	matcher *Matcher
	gap     *GapAnalyzer
	advisor *Advisor
}

func NewHandler(matcher *Matcher, gap *GapAnalyzer, advisor *Advisor) *Handler {
	return &Handler{matcher: matcher, gap: gap, advisor: advisor}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/match-skills", h.matchSkills)
	rg.POST("/upskilling-path", h.upskillingPath)
	rg.POST("/career-progression", h.careerProgression)
}

type matchSkillsDTO struct {
	Skills []string `json:"skills" binding:"required"`
	TopK   int      `json:"top_k"`
}

const defaultTopK = 5

func (h *Handler) matchSkills(c *gin.Context) {
	var dto matchSkillsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if dto.TopK == 0 {
		dto.TopK = defaultTopK
	}

	candidate := NewCandidateProfile(dto.Skills)
	matches, err := h.matcher.Match(c.Request.Context(), candidate, dto.TopK)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"fingerprint": candidate.Fingerprint,
		"matches":     matches,
	})
}

type upskillingPathDTO struct {
	Skills     []string `json:"skills"      binding:"required"`
	TargetRole string   `json:"target_role" binding:"required"`
}

func (h *Handler) upskillingPath(c *gin.Context) {
	var dto upskillingPathDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	candidate := NewCandidateProfile(dto.Skills)
	match, err := h.matcher.MatchRole(c.Request.Context(), candidate, dto.TargetRole)
	if err != nil {
		response.Error(c, err)
		return
	}

	report := h.gap.Estimate(match.MissingSkills)
	response.OK(c, gin.H{
		"target_role":     match.Role.Name,
		"matching_skills": match.MatchingSkills,
		"missing_skills":  match.MissingSkills,
		"gap_report":      report,
	})
}

type careerProgressionDTO struct {
	CurrentRole string `json:"current_role" binding:"required"`
}

func (h *Handler) careerProgression(c *gin.Context) {
	var dto careerProgressionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	steps, err := h.advisor.NextSteps(dto.CurrentRole)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"next_steps": steps})
}
