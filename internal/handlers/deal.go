package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/services"
	"github.com/stonebridgevc/dealdesk-backend/internal/types"
)

type DealHandler struct {
	log         *logger.Logger
	dealService services.DealService
}

func NewDealHandler(log *logger.Logger, dealService services.DealService) *DealHandler {
	return &DealHandler{
		log:         log.With("handler", "DealHandler"),
		dealService: dealService,
	}
}

// POST /api/upload
func (h *DealHandler) UploadDeal(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", fmt.Errorf("multipart field 'file' is required: %w", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	record, err := h.dealService.ProcessUpload(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		h.log.Error("UploadDeal failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"deal_id": record.Metadata.DealID,
		"status":  record.Metadata.Status,
	})
}

// POST /api/generate_memo/:dealId
func (h *DealHandler) RegenerateMemo(c *gin.Context) {
	dealID := c.Param("dealId")
	var input types.WeightageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_weightage", err)
		return
	}
	if _, err := h.dealService.RegenerateMemo(c.Request.Context(), dealID, input.Resolve()); err != nil {
		h.log.Error("RegenerateMemo failed", "deal_id", dealID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Memo regenerated successfully"})
}

// GET /api/deals/:dealId
func (h *DealHandler) GetDeal(c *gin.Context) {
	dealID := c.Param("dealId")
	record, err := h.dealService.GetDeal(c.Request.Context(), dealID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, record)
}

// GET /api/deals
func (h *DealHandler) ListDeals(c *gin.Context) {
	records, err := h.dealService.ListDeals(c.Request.Context())
	if err != nil {
		h.log.Error("ListDeals failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, records)
}

// DELETE /api/deals/:dealId
func (h *DealHandler) DeleteDeal(c *gin.Context) {
	dealID := c.Param("dealId")
	if err := h.dealService.DeleteDeal(c.Request.Context(), dealID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Deal deleted successfully"})
}

// GET /api/download_memo/:dealId
func (h *DealHandler) DownloadMemo(c *gin.Context) {
	h.serveDownload(c, h.dealService.DownloadMemo)
}

// GET /api/download_pitch_deck/:dealId
func (h *DealHandler) DownloadPitchDeck(c *gin.Context) {
	h.serveDownload(c, h.dealService.DownloadPitchDeck)
}

type founderInviteRequest struct {
	FounderEmail     string `json:"founder_email"`
	ExpiresInMinutes *int   `json:"expires_in_minutes"`
}

// POST /api/deals/:dealId/founder_invite
func (h *DealHandler) CreateFounderInvite(c *gin.Context) {
	dealID := c.Param("dealId")
	var req founderInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_invite_request", err)
		return
	}
	if req.FounderEmail == "" {
		RespondError(c, http.StatusBadRequest, "invalid_invite_request", fmt.Errorf("founder_email is required"))
		return
	}
	expiresInMinutes := 60
	if req.ExpiresInMinutes != nil {
		expiresInMinutes = *req.ExpiresInMinutes
		if expiresInMinutes < 5 || expiresInMinutes > 1440 {
			RespondError(c, http.StatusBadRequest, "invalid_invite_request", fmt.Errorf("expires_in_minutes must be between 5 and 1440"))
			return
		}
	}

	invite, err := h.dealService.CreateFounderInvite(c.Request.Context(), dealID, req.FounderEmail, expiresInMinutes)
	if err != nil {
		h.log.Error("CreateFounderInvite failed", "deal_id", dealID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"invite_url": invite.InviteURL,
		"expires_at": invite.ExpiresAt,
	})
}

type founderChatRequest struct {
	Participant string    `json:"participant"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// POST /api/deals/:dealId/founder_chat
func (h *DealHandler) RecordFounderChat(c *gin.Context) {
	dealID := c.Param("dealId")
	var req founderChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chat_request", err)
		return
	}
	if req.Participant == "" || req.Message == "" {
		RespondError(c, http.StatusBadRequest, "invalid_chat_request", fmt.Errorf("participant and message are required"))
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	msg := types.ChatMessage{
		Participant: req.Participant,
		Message:     req.Message,
		Timestamp:   req.Timestamp,
	}
	if err := h.dealService.RecordFounderChat(c.Request.Context(), dealID, msg); err != nil {
		h.log.Error("RecordFounderChat failed", "deal_id", dealID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Chat transcript stored"})
}

func (h *DealHandler) serveDownload(c *gin.Context, fetch func(ctx context.Context, dealID string) (*services.DownloadedFile, error)) {
	dealID := c.Param("dealId")
	file, err := fetch(c.Request.Context(), dealID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
