package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"lendview/core/loan"
	"lendview/services/loanform"
	"lendview/services/loanviewd/storage"
	"lendview/services/staking"
)

type sessionResponse struct {
	ID       string            `json:"id"`
	Snapshot loanform.Snapshot `json:"snapshot"`
}

type collateralRequest struct {
	Value string `json:"value"`
}

type collateralResponse struct {
	Accepted bool              `json:"accepted"`
	Snapshot loanform.Snapshot `json:"snapshot"`
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
}

type stakingResponse struct {
	Tab   staking.Tab    `json:"tab"`
	Route string         `json:"route"`
	Pools []staking.Pool `json:"pools"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	form := loan.NewForm(s.cfg.Prices, s.cfg.Params)
	viewCfg := loanform.Config{
		Submitter: s.cfg.Submitter,
		Quotes:    s.cfg.Quotes,
		Notifier:  s.cfg.Notifier,
		Logger:    s.logger,
	}
	if s.cfg.Metrics != nil {
		viewCfg.Metrics = s.cfg.Metrics
	}
	if s.cfg.Journal != nil {
		viewCfg.Journal = s.cfg.Journal
	}
	view, err := loanform.NewView("", form, viewCfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess := newSession(view)
	s.sessions.add(view.ID(), sess)
	s.cfg.Metrics.SessionOpened()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: view.ID(), Snapshot: sess.do(nil)})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	snap := sess.do(nil)
	writeJSON(w, http.StatusOK, sessionResponse{ID: snap.Session, Snapshot: snap})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.remove(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	sess.close()
	s.cfg.Metrics.SessionClosed()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setCollateral(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req collateralRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var accepted bool
	snap := sess.do(func(v *loanform.View) { accepted = v.OnCollateralInput(req.Value) })
	writeJSON(w, http.StatusOK, collateralResponse{Accepted: accepted, Snapshot: snap})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	borrower, ok := BorrowerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "borrower unknown")
		return
	}
	pending, err := sess.prepareSubmit(borrower)
	if err != nil {
		writeError(w, submitStatus(err), err.Error())
		return
	}
	receipt, err := pending.Send(r.Context())
	sess.publish(sess.finishSubmit())
	if err != nil {
		writeError(w, submitStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{TxHash: receipt.TxHash.Hex()})
}

func submitStatus(err error) int {
	if errors.Is(err, loanform.ErrSubmitDisabled) || errors.Is(err, errSubmitInFlight) {
		return http.StatusConflict
	}
	if errors.Is(err, loanform.ErrSubmitterMissing) {
		return http.StatusServiceUnavailable
	}
	var submitErr *loanform.SubmitError
	if errors.As(err, &submitErr) {
		switch submitErr.Reason {
		case loanform.ReasonRejected:
			return http.StatusForbidden
		case loanform.ReasonInsufficientFunds:
			return http.StatusPaymentRequired
		case loanform.ReasonPaused:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusBadGateway
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.writeSubmissions(w, r, "session", id, s.journalBySession)
}

// listBorrowerSubmissions lists the attempts of the authenticated borrower
// across every session.
func (s *Server) listBorrowerSubmissions(w http.ResponseWriter, r *http.Request) {
	borrower, ok := BorrowerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "borrower unknown")
		return
	}
	s.writeSubmissions(w, r, "borrower", borrower.Hex(), s.journalByBorrower)
}

type submissionQuery func(r *http.Request, key string, limit int) ([]storage.Submission, error)

func (s *Server) journalBySession(r *http.Request, id string, limit int) ([]storage.Submission, error) {
	return s.cfg.Journal.BySession(r.Context(), id, limit)
}

func (s *Server) journalByBorrower(r *http.Request, borrower string, limit int) ([]storage.Submission, error) {
	return s.cfg.Journal.ByBorrower(r.Context(), borrower, limit)
}

func (s *Server) writeSubmissions(w http.ResponseWriter, r *http.Request, field, key string, query submissionQuery) {
	if s.cfg.Journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := query(r, key, limit)
	if err != nil {
		s.logger.Error("list submissions", field, key, "error", err)
		writeError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	if rows == nil {
		rows = []storage.Submission{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) stakingPools(w http.ResponseWriter, r *http.Request) {
	owner := common.Address{}
	if raw := strings.TrimSpace(r.URL.Query().Get("owner")); raw != "" {
		if !common.IsHexAddress(raw) {
			writeError(w, http.StatusBadRequest, "owner is not a wallet address")
			return
		}
		owner = common.HexToAddress(raw)
	}
	page := staking.NewPage(s.cfg.Pools, s.cfg.StakingMetrics, owner)
	route, err := page.Switch(chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	pools, err := page.Pools(r.Context())
	switch {
	case errors.Is(err, staking.ErrOwnerRequired):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Warn("list staking pools", "error", err)
		writeError(w, http.StatusBadGateway, "pool listing unavailable")
		return
	}
	if pools == nil {
		pools = []staking.Pool{}
	}
	writeJSON(w, http.StatusOK, stakingResponse{Tab: page.Tab(), Route: route, Pools: pools})
}
