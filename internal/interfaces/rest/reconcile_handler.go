package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/leadbridge/backend/internal/application/services"
)

// ReconcileHandler exposes on-demand drift verification
type ReconcileHandler struct {
	svc *services.ServiceManager
}

// NewReconcileHandler creates a new ReconcileHandler
func NewReconcileHandler(svc *services.ServiceManager) *ReconcileHandler {
	return &ReconcileHandler{svc: svc}
}

// Verify handles GET /api/reconcile/:recordId
func (h *ReconcileHandler) Verify(c *gin.Context) {
	tenantID := GetTenantFromContext(c)
	recordID := c.Param("recordId")

	result := h.svc.Reconciler.Verify(c.Request.Context(), tenantID, recordID)
	RespondData(c, result)
}

// VerifyBatch handles POST /api/reconcile/batch
func (h *ReconcileHandler) VerifyBatch(c *gin.Context) {
	tenantID := GetTenantFromContext(c)
	var body struct {
		RecordIDs []string `json:"record_ids" binding:"required"`
	}
	if !BindJSON(c, &body) {
		return
	}

	results := h.svc.Reconciler.VerifyBatch(c.Request.Context(), tenantID, body.RecordIDs)
	RespondData(c, results)
}
