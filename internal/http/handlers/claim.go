package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sorosurance/sorosurance-backend/internal/http/response"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/services"
)

// maxUploadBytes bounds multipart reads; voice notes and evidence
// photos from feature phones are well under this.
const maxUploadBytes = 32 << 20

type ClaimHandler struct {
	claims services.ClaimService
}

func NewClaimHandler(claims services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

// POST /api/claims (multipart form with the voice recording)
func (h *ClaimHandler) SubmitVoice(c *gin.Context) {
	policyID, err := uuid.Parse(c.PostForm("policy_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_policy_id", err)
		return
	}
	claimedAmount, err := strconv.ParseFloat(c.PostForm("claimed_amount"), 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_claimed_amount", err)
		return
	}
	estimatedLoss, _ := strconv.ParseFloat(c.DefaultPostForm("estimated_loss", "0"), 64)

	incidentDate := time.Now()
	if raw := c.PostForm("incident_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_incident_date", err)
			return
		}
		incidentDate = parsed
	}

	audio, filename, err := readUpload(c, "audio")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_audio", err)
		return
	}

	claim, err := h.claims.SubmitVoiceClaim(dbctx.New(c.Request.Context()), services.SubmitVoiceClaimInput{
		PolicyID:         policyID,
		ClaimType:        c.DefaultPostForm("claim_type", "other"),
		Description:      c.PostForm("description"),
		IncidentDate:     incidentDate,
		IncidentLocation: c.PostForm("incident_location"),
		ClaimedAmount:    claimedAmount,
		EstimatedLoss:    estimatedLoss,
		Audio:            audio,
		AudioFilename:    filename,
	})
	if err != nil {
		response.RespondServiceError(c, "submit_claim_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"claim": claim})
}

// POST /api/claims/:id/evidence (multipart form)
func (h *ClaimHandler) AttachEvidence(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
		return
	}
	kind := c.DefaultPostForm("kind", "photo")
	data, filename, err := readUpload(c, "file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	claim, err := h.claims.AttachEvidence(dbctx.New(c.Request.Context()), claimID, kind, filename, data)
	if err != nil {
		response.RespondServiceError(c, "attach_evidence_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"claim": claim})
}

// GET /api/claims
func (h *ClaimHandler) List(c *gin.Context) {
	claims, err := h.claims.ListForRequestUser(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, "list_claims_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"claims": claims})
}

// GET /api/claims/:id
func (h *ClaimHandler) Get(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
		return
	}
	claim, err := h.claims.GetForRequestUser(dbctx.New(c.Request.Context()), claimID)
	if err != nil {
		response.RespondServiceError(c, "claim_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"claim": claim})
}

// POST /api/claims/:id/cancel
func (h *ClaimHandler) Cancel(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
		return
	}
	claim, err := h.claims.Cancel(dbctx.New(c.Request.Context()), claimID)
	if err != nil {
		response.RespondServiceError(c, "cancel_claim_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"claim": claim})
}

// GET /api/claims/:id/analyses
func (h *ClaimHandler) Analyses(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
		return
	}
	analyses, err := h.claims.AnalysesForClaim(dbctx.New(c.Request.Context()), claimID)
	if err != nil {
		response.RespondServiceError(c, "list_analyses_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"analyses": analyses})
}

// GET /api/claims/:id/scores
func (h *ClaimHandler) ScoreHistory(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
		return
	}
	scores, err := h.claims.ScoreHistory(dbctx.New(c.Request.Context()), claimID)
	if err != nil {
		response.RespondServiceError(c, "score_history_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"scores": scores})
}

// GET /api/review/claims
func (h *ClaimHandler) ListForReview(c *gin.Context) {
	claims, err := h.claims.ListForReview(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, "list_review_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"claims": claims})
}

// POST /api/review/claims/:id
func (h *ClaimHandler) Review(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
		return
	}
	var req struct {
		Approve        bool     `json:"approve"`
		Notes          string   `json:"notes"`
		ApprovedAmount *float64 `json:"approved_amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	claim, err := h.claims.Review(dbctx.New(c.Request.Context()), services.ReviewClaimInput{
		ClaimID:        claimID,
		Approve:        req.Approve,
		Notes:          req.Notes,
		ApprovedAmount: req.ApprovedAmount,
	})
	if err != nil {
		response.RespondServiceError(c, "review_claim_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"claim": claim})
}

// POST /api/review/claims/:id/score
func (h *ClaimHandler) OverrideScore(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
		return
	}
	var req struct {
		Score  *float64 `json:"score" binding:"required"`
		Reason string   `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	claim, err := h.claims.OverrideScore(dbctx.New(c.Request.Context()), claimID, *req.Score, req.Reason)
	if err != nil {
		response.RespondServiceError(c, "override_score_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"claim": claim})
}

func readUpload(c *gin.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	if fh.Size > maxUploadBytes {
		return nil, "", fmt.Errorf("file %q exceeds %d bytes", fh.Filename, maxUploadBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}
