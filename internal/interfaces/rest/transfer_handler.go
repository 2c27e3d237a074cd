package rest

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/leadbridge/backend/internal/application/services"
	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/pkg/errors"
	"github.com/leadbridge/backend/pkg/utils"
)

// TransferHandler exposes the transfer engine over HTTP
type TransferHandler struct {
	svc *services.ServiceManager
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(svc *services.ServiceManager) *TransferHandler {
	return &TransferHandler{svc: svc}
}

// TransferRequestBody is the inbound transfer payload. The UI layer has
// already assembled the record and the active-field set; the core only
// validates and transfers.
type TransferRequestBody struct {
	RecordID     string                 `json:"record_id" binding:"required"`
	Record       map[string]interface{} `json:"record" binding:"required"`
	Labels       map[string]string      `json:"labels"`
	ActiveFields []string               `json:"active_fields"`
	Attachments  []string               `json:"attachments"`
}

// Transfer handles POST /api/transfer
func (h *TransferHandler) Transfer(c *gin.Context) {
	tenantID := GetTenantFromContext(c)
	var body TransferRequestBody
	if !BindJSON(c, &body) {
		return
	}

	reqID := utils.GenerateRequestID()
	log.Printf("📨 [%s] Transfer requested: tenant=%s record=%s fields=%d attachments=%d",
		reqID, tenantID, body.RecordID, len(body.Record), len(body.Attachments))

	result, err := h.svc.Transfer.Transfer(c.Request.Context(), services.TransferRequest{
		TenantID:     tenantID,
		RecordID:     body.RecordID,
		Record:       lead.Record(body.Record),
		Labels:       body.Labels,
		ActiveFields: body.ActiveFields,
		Attachments:  body.Attachments,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondData(c, result)
}

// Status handles GET /api/transfer/status/:recordId
func (h *TransferHandler) Status(c *gin.Context) {
	tenantID := GetTenantFromContext(c)
	recordID := c.Param("recordId")

	entry, err := h.svc.Ledger.GetStatus(c.Request.Context(), tenantID, recordID)
	if err != nil {
		RespondAppError(c, errors.NewInternalError("failed to load transfer status", err))
		return
	}
	if entry == nil {
		RespondAppError(c, errors.NewNotFoundError("transfer status", recordID))
		return
	}
	RespondData(c, entry)
}

// StatusBatch handles POST /api/transfer/status/batch
func (h *TransferHandler) StatusBatch(c *gin.Context) {
	tenantID := GetTenantFromContext(c)
	var body struct {
		RecordIDs []string `json:"record_ids" binding:"required"`
	}
	if !BindJSON(c, &body) {
		return
	}

	entries, err := h.svc.Ledger.GetBatch(c.Request.Context(), tenantID, body.RecordIDs)
	if err != nil {
		RespondAppError(c, errors.NewInternalError("failed to batch-load transfer status", err))
		return
	}
	RespondData(c, entries)
}

// DeleteStatus handles DELETE /api/transfer/status/:recordId
// Operator cleanup; ledger entries are never deleted automatically.
func (h *TransferHandler) DeleteStatus(c *gin.Context) {
	tenantID := GetTenantFromContext(c)
	recordID := c.Param("recordId")

	if err := h.svc.Ledger.DeleteStatus(c.Request.Context(), tenantID, recordID); err != nil {
		RespondAppError(c, errors.NewInternalError("failed to delete transfer status", err))
		return
	}
	RespondData(c, gin.H{"deleted": recordID})
}
