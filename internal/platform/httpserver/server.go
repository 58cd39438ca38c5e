package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	electionservice "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service"
	electionerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/domain/errors"
	electionhttp "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/election-service/transport/http"
	tallyservice "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service"
	tallyerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/errors"
	tallyhttp "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/transport/http"
	votingengine "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine"
	votingerrors "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/errors"
	votinghttp "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/amiparadis250/kpdu-sub001/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	elections electionservice.Module
	voting    votingengine.Module
	tally     tallyservice.Module
}

func New(
	elections electionservice.Module,
	voting votingengine.Module,
	tally tallyservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		elections: elections,
		voting:    voting,
		tally:     tally,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/elections", s.handleCreateElection)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/status", s.handleUpdateElectionStatus)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/config", s.handleElectionConfig)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/stats", s.handleElectionStats)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/transitions", s.handleStatusTransitions)
	s.mux.HandleFunc("GET /v1/elections/active", s.handleActiveElections)
	s.mux.HandleFunc("GET /v1/registry/stats", s.handleRegistryStats)
	s.mux.HandleFunc("POST /v1/registry/admins", s.handleAddAdmin)
	s.mux.HandleFunc("GET /v1/registry/admins", s.handleListAdmins)

	s.mux.HandleFunc("POST /v1/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/votes/{vote_id}", s.handleVerifyVote)
	s.mux.HandleFunc("GET /v1/voters/{voter_hash}", s.handleVoterRecord)

	s.mux.HandleFunc("GET /v1/results/elections/{election_id}", s.handleElectionResults)
	s.mux.HandleFunc("GET /v1/results/positions/{position_id}", s.handlePositionResults)
	s.mux.HandleFunc("PUT /v1/results/positions/{position_id}/override", s.handleSetOverride)
	s.mux.HandleFunc("DELETE /v1/results/positions/{position_id}/override", s.handleClearOverride)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.CreateElectionHandler(r.Context(), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateElectionStatus(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.UpdateElectionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.UpdateElectionStatusHandler(r.Context(), r.PathValue("election_id"), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleElectionConfig(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ElectionConfigHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleElectionStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ElectionStatsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatusTransitions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.StatusTransitionsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActiveElections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ActiveElectionsHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegistryStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.RegistryStatsHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.AddAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.AddAdminHandler(r.Context(), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ListAdminsHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voterHash := strings.TrimSpace(r.Header.Get("X-Voter-Hash"))
	if voterHash == "" {
		writeVotingError(w, http.StatusUnauthorized, "missing_voter_hash", "X-Voter-Hash header is required")
		return
	}

	var req votinghttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.CastVoteHandler(r.Context(), voterHash, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleVerifyVote(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.VerifyVoteHandler(r.Context(), r.PathValue("vote_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoterRecord(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.VoterRecordHandler(r.Context(), r.PathValue("voter_hash"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleElectionResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.Handler.ElectionResultsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePositionResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.Handler.PositionResultsHandler(r.Context(), r.PathValue("position_id"))
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req tallyhttp.SetOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTallyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.tally.Handler.SetOverrideHandler(r.Context(), r.PathValue("position_id"), req)
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	if err := s.tally.Handler.ClearOverrideHandler(r.Context(), r.PathValue("position_id")); err != nil {
		writeTallyDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeElectionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, electionerrors.ErrInvalidConfig):
		writeElectionError(w, http.StatusUnprocessableEntity, "invalid_config", err.Error())
	case errors.Is(err, electionerrors.ErrAlreadyExists):
		writeElectionError(w, http.StatusConflict, "election_exists", err.Error())
	case errors.Is(err, electionerrors.ErrElectionNotFound):
		writeElectionError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, electionerrors.ErrPositionNotFound):
		writeElectionError(w, http.StatusNotFound, "position_not_found", err.Error())
	case errors.Is(err, electionerrors.ErrIllegalTransition):
		writeElectionError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, electionerrors.ErrInvalidPrincipal):
		writeElectionError(w, http.StatusBadRequest, "invalid_principal", err.Error())
	case errors.Is(err, electionerrors.ErrAdminExists):
		writeElectionError(w, http.StatusConflict, "admin_exists", err.Error())
	default:
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votingerrors.ErrInvalidVoteInput):
		writeVotingError(w, http.StatusBadRequest, "invalid_vote_input", err.Error())
	case errors.Is(err, votingerrors.ErrInvalidVoterHash):
		writeVotingError(w, http.StatusBadRequest, "invalid_voter_hash", err.Error())
	case errors.Is(err, votingerrors.ErrElectionNotFound):
		writeVotingError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrElectionNotActive):
		writeVotingError(w, http.StatusConflict, "election_not_active", err.Error())
	case errors.Is(err, votingerrors.ErrOutsideVotingWindow):
		writeVotingError(w, http.StatusConflict, "outside_voting_window", err.Error())
	case errors.Is(err, votingerrors.ErrPositionNotFound):
		writeVotingError(w, http.StatusNotFound, "position_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrCandidateNotFound):
		writeVotingError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrDuplicateVote):
		writeVotingError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, votingerrors.ErrContention):
		writeVotingError(w, http.StatusServiceUnavailable, "write_contention", err.Error())
	case errors.Is(err, votingerrors.ErrVoteNotFound):
		writeVotingError(w, http.StatusNotFound, "vote_not_found", err.Error())
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTallyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tallyerrors.ErrElectionNotFound):
		writeTallyError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, tallyerrors.ErrPositionNotFound):
		writeTallyError(w, http.StatusNotFound, "position_not_found", err.Error())
	case errors.Is(err, tallyerrors.ErrCandidateNotFound):
		writeTallyError(w, http.StatusUnprocessableEntity, "candidate_not_found", err.Error())
	case errors.Is(err, tallyerrors.ErrInvalidOverride):
		writeTallyError(w, http.StatusBadRequest, "invalid_override", err.Error())
	case errors.Is(err, tallyerrors.ErrOverrideNotFound):
		writeTallyError(w, http.StatusNotFound, "override_not_found", err.Error())
	default:
		writeTallyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeTallyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, tallyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
