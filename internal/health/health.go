// Package health implements the liveness and readiness endpoints.
//
// Liveness (/healthz) answers 200 whenever the process can serve HTTP at
// all. Readiness (/readyz) runs every registered [Checker] and answers 200
// only if none of them report an error. Both endpoints reply with a JSON
// body of the form:
//
//	{"status": "ok", "checks": {"matcher": "ok", "config": "fail: ..."}}
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Each readiness check gets at most this long before its context expires.
const checkTimeout = 5 * time.Second

// Handler answers health probes. Checkers are fixed at construction, so a
// Handler needs no locking and may serve requests concurrently.
type Handler struct {
	checkers []Checker
}

// Checker couples a probe function with the name it reports under. Check
// returns nil while the dependency works and an error once it does not; the
// error text is surfaced verbatim in the readiness response.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// probe runs the check under the package timeout and renders the outcome in
// the form the checks map uses.
func (c Checker) probe(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := c.Check(ctx); err != nil {
		return "fail: " + err.Error(), false
	}
	return "ok", true
}

// result is the response body shape shared by both endpoints.
type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// New builds a Handler over a private copy of the given checkers. Readiness
// evaluates them in the order they were passed.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// Register mounts both probe routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Healthz reports liveness. It never consults the checkers.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, result{Status: "ok"})
}

// Readyz reports readiness. A single failing checker turns the whole
// response into a 503; the per-check entries still show which ones passed.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := result{
		Status: "ok",
		Checks: make(map[string]string, len(h.checkers)),
	}
	code := http.StatusOK

	for _, c := range h.checkers {
		value, ok := c.probe(r.Context())
		res.Checks[c.Name] = value
		if !ok {
			res.Status = "fail"
			code = http.StatusServiceUnavailable
		}
	}

	h.respond(w, code, res)
}

func (h *Handler) respond(w http.ResponseWriter, code int, res result) {
	body, err := json.Marshal(res)
	if err != nil {
		http.Error(w, "encode health response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(body)
}
