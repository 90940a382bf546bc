package httpapi

import (
	"net/http"
)

func (h *Handler) RunSweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSweepJob")
	defer span.End()

	report, err := h.sweeperService.RunOnce(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "sweep job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
