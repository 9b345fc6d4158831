// Package router matches inbound requests against an ordered route table
// and resolves them to a destination: an upstream pool, a static file
// root, the health endpoint, or the admin marker.
//
// Routes are held sorted by descending priority; ties keep insertion
// order. A miss is not an error: Match reports it with a false bool and
// the caller answers 404.
package router

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"stratos-hq/charon/pkg/config"
)

// Kind classifies what a route resolves to.
type Kind string

// Route destination kinds.
const (
	// KindProxy forwards the request to an upstream pool.
	KindProxy Kind = "proxy"

	// KindStatic serves files from a local directory.
	KindStatic Kind = "static"

	// KindHealth answers the built-in health response.
	KindHealth Kind = "health"

	// KindAdmin marks a path as admin-only; the data plane answers 404
	// so admin endpoints stay invisible on the public listener.
	KindAdmin Kind = "admin"
)

// Default priorities per kind, applied when a route leaves priority
// unset. Health outranks proxies, proxies outrank static catch-alls.
const (
	PriorityHealth = 100
	PriorityProxy  = 50
	PriorityStatic = 10
)

// Destination is what a matched route resolves to.
type Destination struct {
	// Kind selects the handler.
	Kind Kind

	// Upstream is the pool name for proxy routes. "*" selects purely by
	// load balancing.
	Upstream string

	// Root is the filesystem directory for static routes.
	Root string
}

// Route is one routing rule.
type Route struct {
	// Path is the path pattern: exact ("/api/users"), prefix wildcard
	// ("/api/*"), or parameterized segments ("/users/:id").
	Path string

	// Host, when set, must match the request host.
	Host string

	// Methods, when non-empty, restricts the route to the listed HTTP
	// methods. Normalized to upper case by the table.
	Methods []string

	// Destination is what the route resolves to.
	Destination Destination

	// Priority orders the table; higher matches first. Zero picks the
	// kind default.
	Priority int
}

// Info is the read-only listing form of a route, served by the admin API.
type Info struct {
	Path     string   `json:"path"`
	Host     string   `json:"host,omitempty"`
	Methods  []string `json:"methods,omitempty"`
	Handler  string   `json:"handler"`
	Priority int      `json:"priority"`
}

// entry is a route prepared for matching.
type entry struct {
	route Route

	// methods is the normalized method set; nil accepts every method.
	methods map[string]struct{}

	// seq breaks priority ties by insertion order.
	seq int
}

// Table is the route table. All methods are safe for concurrent use;
// Match takes a read lock only.
type Table struct {
	mu      sync.RWMutex
	entries []entry
	nextSeq int
}

// NewTable builds a table from the given routes, applying kind default
// priorities and sorting by descending priority.
func NewTable(routes []Route) *Table {
	t := &Table{}
	t.Replace(routes)
	return t
}

// FromConfig converts configured routing rules into routes. Validation
// happens at config load time; unknown kinds are carried through and
// simply never match a handler.
func FromConfig(cfgs []config.RouteConfig) []Route {
	routes := make([]Route, 0, len(cfgs))
	for _, rc := range cfgs {
		routes = append(routes, Route{
			Path:    rc.Path,
			Host:    rc.Host,
			Methods: rc.Methods,
			Destination: Destination{
				Kind:     Kind(rc.Kind),
				Upstream: rc.Upstream,
				Root:     rc.Root,
			},
			Priority: rc.Priority,
		})
	}
	return routes
}

// Match finds the highest-priority route matching the request and
// reports whether one exists. A route matches when its method set (if
// any) contains the request method, its host pattern (if any) matches
// the request host, and its path pattern matches the request path.
func (t *Table) Match(method, path, host string) (Route, bool) {
	method = strings.ToUpper(method)

	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.entries {
		if t.entries[i].matches(method, path, host) {
			return t.entries[i].route, true
		}
	}
	return Route{}, false
}

// Add inserts a route and re-sorts the table.
func (t *Table) Add(r Route) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.addLocked(r)
	t.sortLocked()
}

// Remove deletes every route with the given path and host, reporting
// whether any were removed. Order is preserved, so no re-sort is needed.
func (t *Table) Remove(path, host string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.entries[:0]
	removed := false
	for _, e := range t.entries {
		if e.route.Path == path && e.route.Host == host {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
	return removed
}

// Replace swaps the whole table for the given routes. Used by config
// reload so in-flight matches see either the old table or the new one,
// never a mix.
func (t *Table) Replace(routes []Route) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = t.entries[:0]
	t.nextSeq = 0
	for _, r := range routes {
		t.addLocked(r)
	}
	t.sortLocked()
}

// List returns the table contents in match order.
func (t *Table) List() []Info {
	t.mu.RLock()
	defer t.mu.RUnlock()

	infos := make([]Info, 0, len(t.entries))
	for _, e := range t.entries {
		infos = append(infos, Info{
			Path:     e.route.Path,
			Host:     e.route.Host,
			Methods:  e.route.Methods,
			Handler:  handlerName(e.route.Destination),
			Priority: e.route.Priority,
		})
	}
	return infos
}

// Len returns the number of routes in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Table) addLocked(r Route) {
	if r.Priority == 0 {
		r.Priority = defaultPriority(r.Destination.Kind)
	}

	var methods map[string]struct{}
	if len(r.Methods) > 0 {
		methods = make(map[string]struct{}, len(r.Methods))
		normalized := make([]string, len(r.Methods))
		for i, m := range r.Methods {
			normalized[i] = strings.ToUpper(m)
			methods[normalized[i]] = struct{}{}
		}
		r.Methods = normalized
	}

	t.entries = append(t.entries, entry{route: r, methods: methods, seq: t.nextSeq})
	t.nextSeq++
}

func (t *Table) sortLocked() {
	sort.SliceStable(t.entries, func(i, j int) bool {
		if t.entries[i].route.Priority != t.entries[j].route.Priority {
			return t.entries[i].route.Priority > t.entries[j].route.Priority
		}
		return t.entries[i].seq < t.entries[j].seq
	})
}

// defaultPriority returns the kind default for routes with no explicit
// priority.
func defaultPriority(kind Kind) int {
	switch kind {
	case KindHealth, KindAdmin:
		return PriorityHealth
	case KindStatic:
		return PriorityStatic
	default:
		return PriorityProxy
	}
}

// handlerName renders a destination for route listings: "proxy:NAME",
// "static", "health", or "admin".
func handlerName(d Destination) string {
	if d.Kind == KindProxy {
		return fmt.Sprintf("proxy:%s", d.Upstream)
	}
	return string(d.Kind)
}
