package web

import (
	"errors"
	"net/http"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/neural"
	"github.com/nsiona/tvb-framework/internal/session"
	"github.com/nsiona/tvb-framework/logging"
	"github.com/nsiona/tvb-framework/logging/storelog"
)

const burstMainContent = "burst/main_burst"

// handleBurstIndex opens the burst page, seeding the session with a
// default configuration when it has none yet.
func (s *Server) handleBurstIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/burst/" {
		http.NotFound(w, r)
		return
	}
	if !requireGet(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	cfg, ok := session.BurstConfig(sess)
	if !ok {
		cfg = burst.NewConfiguration(s.projectFor(sess))
		session.SetBurstConfig(sess, cfg)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mainContent":     burstMainContent,
		"burst":           cfg,
		"availableModels": neural.Names(),
	})
}

// handleBurstLaunch hands the session's configuration to the runner.
func (s *Server) handleBurstLaunch(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	cfg, ok := session.BurstConfig(sess)
	if !ok {
		writeError(w, http.StatusConflict, "no burst configuration in session")
		return
	}
	if name := r.PostFormValue("burst_name"); name != "" {
		cfg.Name = name
	}

	started, err := s.runner.Launch(r.Context(), cfg)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, burst.ErrAlreadyRunning):
			status = http.StatusConflict
		default:
			status = storeStatusOr(err, http.StatusBadRequest)
		}
		writeError(w, status, err.Error())
		return
	}

	session.SetBurstConfig(sess, started)
	writeJSON(w, http.StatusOK, started)
}

// handleBurstLoad replaces the session's configuration with a stored one.
func (s *Server) handleBurstLoad(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	id := r.PostFormValue("burst_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing burst_id")
		return
	}
	cfg, err := s.store.Burst(r.Context(), id)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	sess := session.FromContext(r.Context())
	session.SetBurstConfig(sess, cfg)
	session.ClearSurfaceContext(sess)
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleBurstRename(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	id := r.PostFormValue("burst_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing burst_id")
		return
	}
	name := r.PostFormValue("burst_name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing burst_name")
		return
	}

	cfg, err := s.store.Burst(r.Context(), id)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	cfg.Name = name
	if err := s.store.SaveBurst(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	storelog.BurstSaved(r.Context(), s.pub,
		logging.EntityRef{ID: cfg.ID, Kind: logging.EntityKindBurst},
		storelog.BurstPayload{Project: cfg.Project, Status: string(cfg.Status)}, nil)

	sess := session.FromContext(r.Context())
	if current, ok := session.BurstConfig(sess); ok && current.ID == id {
		current.Name = name
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": name})
}

// handleBurstRemove deletes a stored configuration. A running burst
// must be stopped first. Removing the one loaded in the session resets
// the session to a fresh default.
func (s *Server) handleBurstRemove(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	id := r.PostFormValue("burst_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing burst_id")
		return
	}
	if s.runner != nil && s.runner.IsRunning(id) {
		writeError(w, http.StatusConflict, "burst is running")
		return
	}
	if err := s.store.DeleteBurst(r.Context(), id); err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	sess := session.FromContext(r.Context())
	storelog.BurstDeleted(r.Context(), s.pub,
		logging.EntityRef{ID: id, Kind: logging.EntityKindBurst},
		storelog.BurstPayload{Project: s.projectFor(sess)}, nil)
	if current, ok := session.BurstConfig(sess); ok && current.ID == id {
		session.SetBurstConfig(sess, burst.NewConfiguration(s.projectFor(sess)))
		session.ClearSurfaceContext(sess)
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (s *Server) handleBurstList(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	configs, err := s.store.Bursts(r.Context(), s.projectFor(sess))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if configs == nil {
		configs = []*burst.Configuration{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bursts": configs})
}

// storeStatusOr maps store sentinels and falls back to the given
// status for everything else.
func storeStatusOr(err error, fallback int) int {
	if status := storeStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return fallback
}
