package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/roniherschmann/go-seqid/alphabet"
	"github.com/roniherschmann/go-seqid/internal/config"
	"github.com/roniherschmann/go-seqid/internal/core"
	"github.com/roniherschmann/go-seqid/internal/metrics"
	"github.com/roniherschmann/go-seqid/internal/store"
)

type Router struct {
	cfg     config.Config
	svc     *core.Service
	limiter *rateLimiter
}

func NewRouter(cfg config.Config, svc *core.Service) http.Handler {
	r := chi.NewRouter()
	// Logging middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	api := &Router{
		cfg:     cfg,
		svc:     svc,
		limiter: newRateLimiter(cfg.IssueRateRPS, cfg.IssueRateBurst),
	}

	r.MethodFunc(http.MethodGet, "/healthz", api.handleHealth)
	r.MethodFunc(http.MethodGet, "/readyz", api.handleReady)

	// Metrics
	r.MethodFunc(http.MethodGet, "/metrics", metrics.Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/render", api.handleRender)
		r.Post("/sequences", api.handleCreate)
		r.Route("/sequences/{name}", func(r chi.Router) {
			r.Get("/", api.handleGet)
			r.Get("/stats", api.handleStats)
			r.Post("/ids", api.handleIssue)
			r.Get("/ids/{id}", api.handleParse)
			r.With(api.requireAdmin).Put("/position", api.handleSetPosition)
		})
	})

	return r
}

type createReq struct {
	Name     string `json:"name"`
	Alphabet string `json:"alphabet,omitempty"`
	Charset  string `json:"charset,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Start    int64  `json:"start,omitempty"`
}

type sequenceResp struct {
	store.Sequence
	URL string `json:"url,omitempty"`
}

type positionReq struct {
	Position *int64 `json:"position"`
}

type positionResp struct {
	Position int64 `json:"position"`
	Rewound  bool  `json:"rewound"`
}

type parseResp struct {
	ID       string `json:"id"`
	Position int64  `json:"position"`
}

type renderResp struct {
	ID       string `json:"id"`
	Position int64  `json:"position"`
}

// symbols picks an explicit alphabet over a named charset.
func symbols(alpha, charset string) (string, error) {
	if alpha != "" {
		return alpha, nil
	}
	if charset == "" {
		return "", errors.New("alphabet or charset required")
	}
	s, ok := alphabet.Lookup(charset)
	if !ok {
		return "", errors.New("unknown charset " + strconv.Quote(charset))
	}
	return s, nil
}

func (rt *Router) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	syms, err := symbols(req.Alphabet, req.Charset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	seq, err := rt.svc.Create(strings.TrimSpace(req.Name), syms, req.Prefix, req.Start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rt.sequenceResp(seq), http.StatusCreated)
}

func (rt *Router) sequenceResp(seq store.Sequence) sequenceResp {
	resp := sequenceResp{Sequence: seq}
	if rt.cfg.BaseURL != "" {
		resp.URL = strings.TrimRight(rt.cfg.BaseURL, "/") + "/api/v1/sequences/" + seq.Name
	}
	return resp
}

func (rt *Router) handleGet(w http.ResponseWriter, r *http.Request) {
	seq, err := rt.svc.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rt.sequenceResp(seq), http.StatusOK)
}

func (rt *Router) handleIssue(w http.ResponseWriter, r *http.Request) {
	if !rt.limiter.Allow(clientIP(r)) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	count := 1
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid count", http.StatusBadRequest)
			return
		}
		count = n
	}
	batch, err := rt.svc.Issue(chi.URLParam(r, "name"), count)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IssueRequests.Inc()
	writeJSON(w, batch, http.StatusOK)
}

func (rt *Router) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	var req positionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	name := chi.URLParam(r, "name")
	rewound, err := rt.svc.SetPosition(name, *req.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	if rewound {
		w.Header().Set("Warning", `299 - "position moved backwards, ids may be issued twice"`)
	}
	writeJSON(w, positionResp{Position: *req.Position, Rewound: rewound}, http.StatusOK)
}

func (rt *Router) handleParse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pos, err := rt.svc.Parse(chi.URLParam(r, "name"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, parseResp{ID: id, Position: pos}, http.StatusOK)
}

func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.svc.Stats(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stats, http.StatusOK)
}

func (rt *Router) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	syms, err := symbols(q.Get("alphabet"), q.Get("charset"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pos, err := strconv.ParseInt(q.Get("position"), 10, 64)
	if err != nil {
		http.Error(w, "invalid position", http.StatusBadRequest)
		return
	}
	id, err := core.Render(syms, q.Get("prefix"), pos)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, renderResp{ID: id, Position: pos}, http.StatusOK)
}

func (rt *Router) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "Bearer " + rt.cfg.AdminToken
		got := r.Header.Get("Authorization")
		if rt.cfg.AdminToken != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (rt *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, core.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func clientIP(r *http.Request) string {
	// Try X-Forwarded-For or Real-IP first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := r.Header.Get("X-Real-Ip"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
