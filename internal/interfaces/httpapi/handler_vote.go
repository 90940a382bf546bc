package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/song-league/internal/usecase"
)

type castVoteRequest struct {
	SubmissionID string `json:"submissionId" validate:"required"`
	Value        int    `json:"value" validate:"required,oneof=-1 1"`
}

func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CastVote")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	var req castVoteRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	outcome, err := h.voteService.CastVote(ctx, principal, roundID, req.SubmissionID, req.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "cast vote failed",
			"round_id", roundID,
			"submission_id", req.SubmissionID,
			"user_id", principal.UserID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, outcomeToDTO(outcome))
}

func (h *Handler) RetractVote(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RetractVote")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	submissionID := strings.TrimSpace(r.PathValue("submissionID"))
	outcome, err := h.voteService.RetractVote(ctx, principal, roundID, submissionID)
	if err != nil {
		h.logger.WarnContext(ctx, "retract vote failed",
			"round_id", roundID,
			"submission_id", submissionID,
			"user_id", principal.UserID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, outcomeToDTO(outcome))
}

func (h *Handler) GetVoteUsage(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetVoteUsage")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	outcome, err := h.voteService.Usage(ctx, principal, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "get vote usage failed", "round_id", roundID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, outcomeToDTO(outcome))
}
