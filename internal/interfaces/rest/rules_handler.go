package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/leadbridge/backend/internal/application/services"
)

// RulesHandler manages per-tenant transfer guard rules
type RulesHandler struct {
	svc *services.ServiceManager
}

// NewRulesHandler creates a new RulesHandler
func NewRulesHandler(svc *services.ServiceManager) *RulesHandler {
	return &RulesHandler{svc: svc}
}

// List handles GET /api/rules
func (h *RulesHandler) List(c *gin.Context) {
	tenantID := GetTenantFromContext(c)
	rules := h.svc.Validation.Rules(tenantID)
	if rules == nil {
		rules = []services.GuardRule{}
	}
	RespondData(c, rules)
}

// Replace handles PUT /api/rules. Rules are compiled before being
// accepted so a bad expression never reaches transfer time.
func (h *RulesHandler) Replace(c *gin.Context) {
	tenantID := GetTenantFromContext(c)
	var body struct {
		Rules []services.GuardRule `json:"rules" binding:"required"`
	}
	if !BindJSON(c, &body) {
		return
	}

	if err := h.svc.Validation.SetRules(tenantID, body.Rules); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondData(c, body.Rules)
}
