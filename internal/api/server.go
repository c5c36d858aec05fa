// Package api serves the league read model over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints drive advancement and require a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/persistence"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/season"
)

// Server exposes one dynasty's calendar, events, and standings.
type Server struct {
	Ctrl     *season.Controller
	DB       *persistence.DB
	Dynasty  string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// Advancement does real work per call; cap how fast a client can drive it.
	advanceLimiter := NewRateLimiter(120, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/standings", s.handleStandings)
	mux.HandleFunc("/api/v1/milestone", s.handleMilestone)

	// Control plane (POST, require bearer token).
	mux.HandleFunc("/api/v1/advance", s.adminOnly(RateLimitMiddleware(advanceLimiter, s.Dynasty, s.handleAdvance)))
	mux.HandleFunc("/api/v1/simulate", s.adminOnly(RateLimitMiddleware(advanceLimiter, s.Dynasty, s.handleSimulate)))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "dynasty", s.Dynasty, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth and the POST method.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "control endpoints disabled (no LEAGUESIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Ctrl.State()

	status := map[string]any{
		"dynasty":     st.Dynasty,
		"date":        st.Date,
		"phase":       st.Phase,
		"phase_name":  st.Phase.Name(),
		"season_year": st.Year,
		"week":        st.Week,
	}
	if st.Round > 0 {
		status["playoff_round"] = st.Round
	}

	if act, err := s.Ctrl.NextMilestoneAction(); err == nil {
		status["next_action"] = act
	}

	writeJSON(w, status)
}

// handleEvents returns events in a date range, newest-seeded last.
// Query params: from, to (YYYY-MM-DD, default the current week), kind.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	st := s.Ctrl.State()
	from := st.Date.AddDays(-6)
	to := st.Date

	if v := r.URL.Query().Get("from"); v != "" {
		d, err := calendar.ParseDate(v)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		from = d
	}
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := calendar.ParseDate(v)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		to = d
	}
	kind := event.Kind(r.URL.Query().Get("kind"))

	events, err := s.DB.EventsInRange(s.Dynasty, from, to, kind)
	if err != nil {
		slog.Error("events query failed", "dynasty", s.Dynasty, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"from":   from,
		"to":     to,
		"events": events,
	})
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	records, err := s.DB.Standings(s.Dynasty)
	if err != nil {
		slog.Error("standings query failed", "dynasty", s.Dynasty, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

// handleMilestone reports what advancing to the next milestone would do,
// without advancing anything.
func (s *Server) handleMilestone(w http.ResponseWriter, r *http.Request) {
	act, err := s.Ctrl.NextMilestoneAction()
	if err != nil {
		slog.Error("milestone lookup failed", "dynasty", s.Dynasty, "error", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, act)
}

// handleAdvance advances the calendar. Query params: days (default 1) or
// week=true for a week block.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("week") == "true" {
		res, err := s.Ctrl.AdvanceWeek()
		s.writeAdvancement(w, res, err)
		return
	}

	days := 1
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 366 {
			http.Error(w, "days must be between 1 and 366", http.StatusBadRequest)
			return
		}
		days = n
	}

	res, err := s.Ctrl.SimulateToDate(s.Ctrl.State().Date.AddDays(days))
	s.writeAdvancement(w, res, err)
}

// handleSimulate runs to a target date (to=YYYY-MM-DD) or, with no target,
// to the next milestone.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("to"); v != "" {
		target, err := calendar.ParseDate(v)
		if err != nil {
			http.Error(w, "invalid target date", http.StatusBadRequest)
			return
		}
		res, err := s.Ctrl.SimulateToDate(target)
		s.writeAdvancement(w, res, err)
		return
	}

	res, err := s.Ctrl.SimulateToNextMilestone()
	s.writeAdvancement(w, res, err)
}

func (s *Server) writeAdvancement(w http.ResponseWriter, res season.AdvancementResult, err error) {
	if err != nil {
		slog.Error("advancement failed", "dynasty", s.Dynasty, "error", err)
		http.Error(w, fmt.Sprintf("advancement failed: %v", err), http.StatusConflict)
		return
	}
	writeJSON(w, res)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
