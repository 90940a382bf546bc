package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/song-league/internal/usecase"
)

type scheduleRoundRequest struct {
	Name               string     `json:"name" validate:"required,max=120"`
	OpensAt            *time.Time `json:"opensAt"`
	SubmissionsPerUser int        `json:"submissionsPerUser" validate:"omitempty,min=1"`
	MaxUpvotes         *int       `json:"maxUpvotes" validate:"omitempty,min=0"`
	MaxDownvotes       *int       `json:"maxDownvotes" validate:"omitempty,min=0"`
}

func (h *Handler) ScheduleRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ScheduleRound")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	var req scheduleRoundRequest
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

	item, err := h.roundService.ScheduleRound(ctx, principal, leagueID, usecase.ScheduleRoundInput{
		Name:               req.Name,
		OpensAt:            req.OpensAt,
		SubmissionsPerUser: req.SubmissionsPerUser,
		MaxUpvotes:         req.MaxUpvotes,
		MaxDownvotes:       req.MaxDownvotes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "schedule round failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, roundToDTO(item))
}

func (h *Handler) GetRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRound")
	defer span.End()

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	item, err := h.roundService.GetRound(ctx, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "get round failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundToDTO(item))
}

func (h *Handler) StartVoting(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartVoting")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	item, err := h.roundService.StartVoting(ctx, principal, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "start voting failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundToDTO(item))
}

func (h *Handler) EndVoting(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndVoting")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	item, err := h.roundService.EndVoting(ctx, principal, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "end voting failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundToDTO(item))
}

func (h *Handler) RollbackRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RollbackRound")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	item, err := h.roundService.RollbackToSubmissions(ctx, principal, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "rollback round failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundToDTO(item))
}

type adjustDeadlineRequest struct {
	DeltaHours int `json:"deltaHours" validate:"required"`
}

func (h *Handler) AdjustRoundDeadline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdjustRoundDeadline")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	var req adjustDeadlineRequest
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

	item, err := h.roundService.AdjustDeadline(ctx, principal, roundID, req.DeltaHours)
	if err != nil {
		h.logger.WarnContext(ctx, "adjust deadline failed", "round_id", roundID, "delta_hours", req.DeltaHours, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundToDTO(item))
}

type updateRoundConfigRequest struct {
	Name               *string `json:"name" validate:"omitempty,max=120"`
	SubmissionsPerUser *int    `json:"submissionsPerUser" validate:"omitempty,min=1"`
	MaxUpvotes         *int    `json:"maxUpvotes" validate:"omitempty,min=0"`
	MaxDownvotes       *int    `json:"maxDownvotes" validate:"omitempty,min=0"`
}

func (h *Handler) UpdateRoundConfig(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateRoundConfig")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	var req updateRoundConfigRequest
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

	item, err := h.roundService.UpdateRoundConfig(ctx, principal, roundID, usecase.UpdateRoundConfigInput{
		Name:               req.Name,
		SubmissionsPerUser: req.SubmissionsPerUser,
		MaxUpvotes:         req.MaxUpvotes,
		MaxDownvotes:       req.MaxDownvotes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update round config failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundToDTO(item))
}

func (h *Handler) RescoreRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RescoreRound")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthenticated))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	if err := h.roundService.Rescore(ctx, principal, roundID); err != nil {
		h.logger.WarnContext(ctx, "rescore round failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "rescored"})
}

func (h *Handler) ListRoundResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRoundResults")
	defer span.End()

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	results, err := h.scoringService.ListResults(ctx, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "list round results failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]resultDTO, 0, len(results))
	for _, res := range results {
		items = append(items, resultToDTO(res))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
