// Package dashboard serves the live view model over HTTP and turns user
// actions into engine calls and bot commands.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sdibella/deriv-dashboard/internal/botapi"
	"github.com/sdibella/deriv-dashboard/internal/engine"
	"github.com/sdibella/deriv-dashboard/internal/journal"
	"github.com/sdibella/deriv-dashboard/internal/model"
	"github.com/sdibella/deriv-dashboard/internal/store"
	"github.com/sdibella/deriv-dashboard/internal/strategy"
)

//go:embed web/templates/* web/static/*
var webFS embed.FS

const maxBody = 1 << 20

// Engine is the part of the engine the HTTP surface drives.
type Engine interface {
	Config(ctx context.Context) (model.Config, bool, error)
	SaveConfig(ctx context.Context, cfg model.Config) error
	MutateSymbols(ctx context.Context, op store.SymbolOp, symbol string) (bool, error)
}

// Commander sends bot commands.
type Commander interface {
	StartBot() (string, error)
	StopBot() (string, error)
	CloseTrade(contractID string) (string, error)
	Connected() bool
}

type Server struct {
	cfg       Config
	board     *Board
	engine    Engine
	bot       Commander
	templates *template.Template
	static    http.Handler
}

func NewServer(cfg Config, board *Board, eng Engine, bot Commander) (*Server, error) {
	funcMap := template.FuncMap{
		"toupper": strings.ToUpper,
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(webFS, "web/templates/*.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:       cfg,
		board:     board,
		engine:    eng,
		bot:       bot,
		templates: tmpl,
		static:    http.StripPrefix("/static/", http.FileServer(http.FS(static))),
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", s.static)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handleSaveConfig)
		r.Post("/symbols", s.handleSymbols)
		r.Post("/bot/start", s.handleBotCommand(s.bot.StartBot))
		r.Post("/bot/stop", s.handleBotCommand(s.bot.StopBot))
		r.Post("/trades/{id}/close", s.handleCloseTrade)
		r.Get("/logs/download", s.handleLogs)
		r.Get("/journal/sessions", s.handleSessions)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"dur", time.Since(start),
			"req_id", middleware.GetReqID(r.Context()))
	})
}

type indexData struct {
	Ready       bool
	RefreshRate int
	Strategies  []strategyOption
}

type strategyOption struct {
	ID   string
	Name string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, ready := s.board.Snapshot()
	data := indexData{Ready: ready, RefreshRate: s.cfg.RefreshRate}
	for _, id := range strategy.All() {
		data.Strategies = append(data.Strategies, strategyOption{ID: string(id), Name: id.Name()})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.Error("failed to render index template", "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, ready := s.board.Snapshot()
	success(w, map[string]bool{
		"rendered":  ready,
		"connected": s.bot.Connected(),
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	m, ok := s.board.Snapshot()
	if !ok {
		errorResponse(w, http.StatusServiceUnavailable, "View not ready", nil)
		return
	}
	success(w, m)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok, err := s.engine.Config(r.Context())
	if err != nil {
		errorResponse(w, http.StatusServiceUnavailable, "Engine unavailable", err)
		return
	}
	if !ok {
		errorResponse(w, http.StatusServiceUnavailable, "Configuration not loaded", nil)
		return
	}
	success(w, cfg.Redacted())
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		badRequest(w, "Failed to read request body")
		return
	}
	cached, loaded, err := s.engine.Config(r.Context())
	if err != nil {
		errorResponse(w, http.StatusServiceUnavailable, "Engine unavailable", err)
		return
	}
	if !loaded {
		errorResponse(w, http.StatusServiceUnavailable, "Configuration not loaded", nil)
		return
	}
	// Only the keys in the body change; the backend receives the full config.
	cfg, ok := model.Overlay(cached, body)
	if !ok {
		badRequest(w, "Configuration must be a JSON object")
		return
	}
	// The token is never sent to the browser, so a blank one means unchanged.
	if cfg.APIToken == "" {
		cfg.APIToken = cached.APIToken
	}
	if !strategy.ID(cfg.ActiveStrategy).Known() {
		badRequest(w, "Unknown strategy: "+string(cfg.ActiveStrategy))
		return
	}

	if err := s.engine.SaveConfig(r.Context(), cfg); err != nil {
		errorResponse(w, http.StatusBadGateway, engine.MsgSaveFailed, err)
		return
	}
	successMessage(w, engine.MsgSaved, cfg.Redacted())
}

type symbolRequest struct {
	Symbol  model.Text `json:"symbol"`
	Op      model.Text `json:"op"`
	Confirm model.Flag `json:"confirm"`
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	var req symbolRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	op, ok := store.ParseSymbolOp(strings.ToLower(string(req.Op)))
	if !ok {
		badRequest(w, "op must be add or remove")
		return
	}
	symbol := strings.TrimSpace(string(req.Symbol))
	if symbol == "" {
		badRequest(w, "symbol is required")
		return
	}
	if op == store.SymbolRemove && !req.Confirm {
		confirmationRequired(w, "Removing "+symbol+" requires confirmation")
		return
	}

	changed, err := s.engine.MutateSymbols(r.Context(), op, symbol)
	if errors.Is(err, engine.ErrNoConfig) {
		errorResponse(w, http.StatusServiceUnavailable, "Configuration not loaded", nil)
		return
	}
	if err != nil {
		errorResponse(w, http.StatusServiceUnavailable, "Engine unavailable", err)
		return
	}
	success(w, map[string]any{"symbol": symbol, "op": op.String(), "changed": changed})
}

func (s *Server) handleBotCommand(send func() (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := send()
		if err != nil {
			commandError(w, err)
			return
		}
		success(w, map[string]string{"command_id": id})
	}
}

func (s *Server) handleCloseTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !confirm {
		confirmationRequired(w, "Closing trade "+id+" requires confirmation")
		return
	}
	cmdID, err := s.bot.CloseTrade(id)
	if err != nil {
		commandError(w, err)
		return
	}
	success(w, map[string]string{"command_id": cmdID, "contract_id": id})
}

func commandError(w http.ResponseWriter, err error) {
	if errors.Is(err, botapi.ErrNotConnected) {
		errorResponse(w, http.StatusServiceUnavailable, "Bot not connected", err)
		return
	}
	errorResponse(w, http.StatusBadGateway, "Failed to send command", err)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.cfg.LogsURL == "" {
		errorResponse(w, http.StatusNotFound, "Log download not configured", nil)
		return
	}
	http.Redirect(w, r, s.cfg.LogsURL, http.StatusFound)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.cfg.JournalDir == "" {
		success(w, []journal.SessionInfo{})
		return
	}
	sessions, err := journal.DiscoverSessions(s.cfg.JournalDir)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to list journal sessions", err)
		return
	}
	success(w, sessions)
}
