package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/song-league/internal/usecase"
)

type listenProgressRequest struct {
	ProgressSeconds int `json:"progressSeconds" validate:"min=0"`
}

func (h *Handler) RecordListenProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordListenProgress")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	submissionID := strings.TrimSpace(r.PathValue("submissionID"))
	var req listenProgressRequest
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

	progress, err := h.listenService.RecordProgress(ctx, principal, submissionID, req.ProgressSeconds)
	if err != nil {
		h.logger.WarnContext(ctx, "record listen progress failed",
			"round_id", roundID,
			"submission_id", submissionID,
			"user_id", principal.UserID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}
	if progress.RoundID != roundID {
		writeError(ctx, w, fmt.Errorf("%w: submission %s does not belong to round %s", usecase.ErrNotFound, submissionID, roundID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, listenProgressToDTO(progress))
}

func (h *Handler) GetListenStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetListenStatus")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	status, err := h.listenService.Status(ctx, principal, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "get listen status failed", "round_id", roundID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gateStatusToDTO(status))
}
