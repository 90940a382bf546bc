package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/rounds/{roundID}", handler.GetRound)
	mux.HandleFunc("GET /v1/rounds/{roundID}/submissions", handler.ListRoundSubmissions)
	mux.HandleFunc("GET /v1/rounds/{roundID}/results", handler.ListRoundResults)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/standings", handler.ListLeagueStandings)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/members", handler.ListLeagueMembers)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedRoundRoutes(mux, handler, verifier)
	registerAuthorizedSubmissionRoutes(mux, handler, verifier)
	registerAuthorizedVoteRoutes(mux, handler, verifier)
	registerAuthorizedListenRoutes(mux, handler, verifier)
	registerAuthorizedLeagueRoutes(mux, handler, verifier)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sweep", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSweepJob)))
}

func registerAuthorizedRoundRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues/{leagueID}/rounds", RequireAuth(verifier, http.HandlerFunc(handler.ScheduleRound)))
	mux.Handle("POST /v1/rounds/{roundID}/start-voting", RequireAuth(verifier, http.HandlerFunc(handler.StartVoting)))
	mux.Handle("POST /v1/rounds/{roundID}/end-voting", RequireAuth(verifier, http.HandlerFunc(handler.EndVoting)))
	mux.Handle("POST /v1/rounds/{roundID}/rollback", RequireAuth(verifier, http.HandlerFunc(handler.RollbackRound)))
	mux.Handle("POST /v1/rounds/{roundID}/deadline", RequireAuth(verifier, http.HandlerFunc(handler.AdjustRoundDeadline)))
	mux.Handle("PUT /v1/rounds/{roundID}/config", RequireAuth(verifier, http.HandlerFunc(handler.UpdateRoundConfig)))
	mux.Handle("POST /v1/rounds/{roundID}/rescore", RequireAuth(verifier, http.HandlerFunc(handler.RescoreRound)))
}

func registerAuthorizedSubmissionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/rounds/{roundID}/submissions", RequireAuth(verifier, http.HandlerFunc(handler.SubmitSong)))
	mux.Handle("POST /v1/rounds/{roundID}/presubmissions", RequireAuth(verifier, http.HandlerFunc(handler.PresubmitSong)))
	mux.Handle("POST /v1/submissions/{submissionID}/troll-flag", RequireAuth(verifier, http.HandlerFunc(handler.FlagTrollSubmission)))
}

func registerAuthorizedVoteRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("PUT /v1/rounds/{roundID}/votes", RequireAuth(verifier, http.HandlerFunc(handler.CastVote)))
	mux.Handle("DELETE /v1/rounds/{roundID}/votes/{submissionID}", RequireAuth(verifier, http.HandlerFunc(handler.RetractVote)))
	mux.Handle("GET /v1/rounds/{roundID}/votes", RequireAuth(verifier, http.HandlerFunc(handler.GetVoteUsage)))
}

func registerAuthorizedListenRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/rounds/{roundID}/submissions/{submissionID}/listen-progress", RequireAuth(verifier, http.HandlerFunc(handler.RecordListenProgress)))
	mux.Handle("GET /v1/rounds/{roundID}/listen-status", RequireAuth(verifier, http.HandlerFunc(handler.GetListenStatus)))
}

func registerAuthorizedLeagueRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues/{leagueID}/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinLeague)))
}
