package admin

import (
	"encoding/json"
	"net"
	"net/http"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// handleStatus serves GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: Status{
			Status:        "running",
			UptimeSeconds: s.uptimeSeconds(),
			Version:       s.deps.Version,
			GoVersion:     runtime.Version(),
		},
	})
}

// handleHealth serves GET /admin/health: the component checks wrapped
// in the API envelope. 503 when any component is unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeMethodNotAllowed(w)
		return
	}

	status := s.deps.Checker.CheckReadiness(r.Context())

	ok := status.Status == "ready"
	code := http.StatusOK
	if !ok {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, Response{Success: ok, Data: status})
}

// handleStats serves GET /admin/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: Stats{
			Upstreams:     s.deps.Upstreams.Stats(),
			Admission:     s.deps.Admission.Stats(),
			Routes:        s.deps.Routes.Len(),
			UptimeSeconds: s.uptimeSeconds(),
		},
	})
}

// handleRoutes serves GET /admin/routes: the table in match order.
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    s.deps.Routes.List(),
	})
}

// handleConfig serves GET /admin/config: the active configuration as
// YAML with secrets masked, matching the file operators edit.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	if s.deps.Config == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Message: "configuration source not available",
		})
		return
	}

	out, err := yaml.Marshal(s.deps.Config().Redacted())
	if err != nil {
		s.logger.Error("config encode failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Message: "failed to encode configuration",
		})
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// handleReload serves POST /admin/reload.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	if s.deps.Reload == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Message: "reload not supported",
		})
		return
	}

	if err := s.deps.Reload(); err != nil {
		s.logger.Error("config reload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	s.logger.Info("configuration reloaded via admin api")
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    "configuration reloaded",
	})
}

// handleUnblock serves POST /admin/unblock: removes a live block record
// so the source is admitted again immediately. The controller's block
// listener journals the removal.
func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req UnblockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	req.IP = strings.TrimSpace(req.IP)
	if req.IP == "" {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Message: "ip is required",
		})
		return
	}
	if net.ParseIP(req.IP) == nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Message: "invalid ip address",
		})
		return
	}

	removed := s.deps.Admission.UnblockIP(req.IP)
	if !removed {
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Data:    UnblockResult{IP: req.IP, Removed: false},
			Message: "ip is not blocked",
		})
		return
	}

	s.logger.Info("ip unblocked via admin api", "ip", req.IP)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    UnblockResult{IP: req.IP, Removed: true},
	})
}
