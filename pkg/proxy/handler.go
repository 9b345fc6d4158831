package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"

	"stratos-hq/charon/pkg/admission"
	"stratos-hq/charon/pkg/journal"
	"stratos-hq/charon/pkg/journal/recorder"
	"stratos-hq/charon/pkg/router"
	"stratos-hq/charon/pkg/telemetry/metrics"
	"stratos-hq/charon/pkg/upstream"
)

// routeLabelUnmatched is the metrics route label for requests no route
// matched. A real label per unknown path would explode cardinality.
const routeLabelUnmatched = "unmatched"

// Handler is the data-plane pipeline: admission check, route match,
// destination dispatch. It is the innermost handler of the middleware
// chain; everything it writes goes through the chain's response writer.
type Handler struct {
	admission *admission.Controller
	routes    *router.Table
	upstreams *upstream.Manager

	journal   *recorder.Recorder
	collector *metrics.Collector
	logger    *slog.Logger

	// memberNames maps member addresses back to names for metric
	// labels. The member set never changes while the process runs, so
	// the map is built once.
	memberNames map[string]string
}

// NewHandler creates the data-plane handler. The journal recorder and
// metrics collector are attached separately because both are optional.
func NewHandler(ctrl *admission.Controller, routes *router.Table, upstreams *upstream.Manager) *Handler {
	names := make(map[string]string)
	for _, m := range upstreams.Members() {
		names[m.Addr()] = m.Name()
	}

	return &Handler{
		admission:   ctrl,
		routes:      routes,
		upstreams:   upstreams,
		logger:      slog.Default().With("component", "proxy"),
		memberNames: names,
	}
}

// SetJournal attaches a journal recorder. Call before serving traffic.
func (h *Handler) SetJournal(rec *recorder.Recorder) {
	h.journal = rec
}

// SetMetrics attaches a metrics collector. Call before serving traffic.
func (h *Handler) SetMetrics(collector *metrics.Collector) {
	h.collector = collector
}

// ServeHTTP implements http.Handler for the data plane.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sourceIP := clientAddr(r.RemoteAddr)

	rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	decision := h.admission.CheckRequest(sourceIP, r.ContentLength)
	if h.collector != nil {
		h.collector.RecordAdmission(string(decision.Verdict))
	}
	if !decision.Allowed() {
		h.journalDenial(r, sourceIP, decision)
		h.logger.Warn("request denied",
			"source_ip", sourceIP,
			"verdict", decision.Verdict,
			"method", r.Method,
			"path", r.URL.Path,
		)
		writeDenial(rw, decision)
		h.observe(routeLabelUnmatched, "", rw.status, start)
		return
	}

	route, ok := h.routes.Match(r.Method, r.URL.Path, r.Host)
	if !ok {
		WriteError(rw, http.StatusNotFound, "No route matches this request.", "no_route")
		h.observe(routeLabelUnmatched, "", rw.status, start)
		return
	}

	if h.collector != nil {
		h.collector.RecordRequestSize(route.Path, r.ContentLength)
	}

	var member string
	switch route.Destination.Kind {
	case router.KindProxy:
		member = h.serveProxy(rw, r, route)
	case router.KindStatic:
		h.serveStatic(rw, r, route)
	case router.KindHealth:
		h.serveHealth(rw, r)
	case router.KindAdmin:
		// Admin endpoints live on their own listener. On the data plane
		// the route exists only to reserve the path; answering 404 keeps
		// it invisible.
		WriteError(rw, http.StatusNotFound, "No route matches this request.", "no_route")
	default:
		WriteError(rw, http.StatusNotFound, "No route matches this request.", "no_route")
	}

	h.observe(route.Path, member, rw.status, start)
}

// serveProxy forwards the request to the route's upstream pool and
// relays the response. Returns the member name that served the request,
// or "" when forwarding failed.
func (h *Handler) serveProxy(w http.ResponseWriter, r *http.Request, route router.Route) string {
	resp, err := h.upstreams.Forward(r.Context(), r, route.Destination.Upstream)
	if err != nil {
		h.logger.Warn("forward failed",
			"route", route.Path,
			"pool", route.Destination.Upstream,
			"error", err,
		)
		writeUpstreamError(w, err)
		return ""
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Headers are gone; all we can do is log and drop the conn.
		h.logger.Warn("response relay interrupted",
			"route", route.Path,
			"error", err,
		)
	}

	return h.memberName(resp)
}

// serveStatic serves files from the route's root directory. Paths
// resolve against the full request path; http.FileServer rejects
// traversal outside the root.
func (h *Handler) serveStatic(w http.ResponseWriter, r *http.Request, route router.Route) {
	http.FileServer(http.Dir(route.Destination.Root)).ServeHTTP(w, r)
}

// serveHealth answers the built-in liveness response.
func (h *Handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// journalDenial records a denied request in the traffic journal.
func (h *Handler) journalDenial(r *http.Request, sourceIP string, d admission.Decision) {
	if h.journal == nil {
		return
	}

	reason := string(d.Verdict)
	if d.Reason != "" {
		reason = string(d.Reason)
	}

	h.journal.Record(&journal.Event{
		Kind:              journal.KindAdmissionDenied,
		SourceIP:          sourceIP,
		Reason:            reason,
		RetryAfterSeconds: int(math.Ceil(d.RetryAfter.Seconds())),
		Route:             r.URL.Path,
		Detail:            r.Method + " " + r.URL.Path,
	})
}

// observe records request metrics for a completed request.
func (h *Handler) observe(route, member string, status int, start time.Time) {
	if h.collector == nil {
		return
	}
	h.collector.RecordRequest(route, member, status, time.Since(start))
}

// memberName resolves the member that served a relayed response from
// the outbound request's target address.
func (h *Handler) memberName(resp *http.Response) string {
	if resp.Request == nil {
		return ""
	}
	return h.memberNames[resp.Request.URL.Host]
}

// clientAddr extracts the bare IP from a RemoteAddr host:port. Values
// without a port (as some tests construct) pass through unchanged.
func clientAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// statusRecorder captures the status code written by a destination
// handler so the pipeline can label metrics with it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.written {
		s.status = code
		s.written = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.written {
		s.status = http.StatusOK
		s.written = true
	}
	return s.ResponseWriter.Write(b)
}
