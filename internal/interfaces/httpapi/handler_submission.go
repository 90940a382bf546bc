package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/song-league/internal/domain/submission"
	"github.com/riskibarqy/song-league/internal/usecase"
)

type submitSongRequest struct {
	SongTitle       string `json:"songTitle" validate:"required,max=200"`
	Artist          string `json:"artist" validate:"max=200"`
	DurationSeconds int    `json:"durationSeconds" validate:"omitempty,min=1"`
	Type            string `json:"type" validate:"required,oneof=file youtube"`
	CollectionID    string `json:"collectionId" validate:"max=100"`
	AudioKey        string `json:"audioKey" validate:"max=500"`
	ArtKey          string `json:"artKey" validate:"max=500"`
}

func (r submitSongRequest) toInput() usecase.SubmitSongInput {
	return usecase.SubmitSongInput{
		SongTitle:       r.SongTitle,
		Artist:          r.Artist,
		DurationSeconds: r.DurationSeconds,
		Type:            submission.Type(r.Type),
		CollectionID:    r.CollectionID,
		AudioKey:        r.AudioKey,
		ArtKey:          r.ArtKey,
	}
}

func (h *Handler) SubmitSong(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitSong")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	var req submitSongRequest
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

	item, err := h.submissionService.Submit(ctx, principal, roundID, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "submit song failed", "round_id", roundID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, submissionViewToDTO(usecase.SubmissionView{Submission: item}))
}

func (h *Handler) PresubmitSong(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PresubmitSong")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	var req submitSongRequest
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

	intent, err := h.submissionService.Presubmit(ctx, principal, roundID, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "presubmit song failed", "round_id", roundID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, presubmissionToDTO(intent))
}

func (h *Handler) ListRoundSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRoundSubmissions")
	defer span.End()

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	views, err := h.submissionService.ListByRound(ctx, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "list round submissions failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]submissionDTO, 0, len(views))
	for _, v := range views {
		items = append(items, submissionViewToDTO(v))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type trollFlagRequest struct {
	IsTroll *bool `json:"isTroll" validate:"required"`
}

func (h *Handler) FlagTrollSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FlagTrollSubmission")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	submissionID := strings.TrimSpace(r.PathValue("submissionID"))
	var req trollFlagRequest
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

	item, err := h.submissionService.FlagTroll(ctx, principal, submissionID, *req.IsTroll)
	if err != nil {
		h.logger.WarnContext(ctx, "flag troll submission failed", "submission_id", submissionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, submissionViewToDTO(usecase.SubmissionView{Submission: item}))
}
