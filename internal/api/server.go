package api

import (
	"context"
	"net/http"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/assistant"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/auth"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/cm360"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/config"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/middleware"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/observability"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/publish"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger     *zap.Logger
	Metrics    observability.MetricsRegistry
	Config     config.Config
	Auth       *auth.Service
	Sessions   Pinger
	Gateway    *cm360.Client
	Workspaces *models.WorkspaceRegistry
	Publisher  *publish.Publisher
	Assistant  *assistant.Assistant
	// Proxy is mounted under Config.CM360ProxyPrefix when set.
	Proxy http.Handler
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, metrics observability.MetricsRegistry, cfg config.Config, authSvc *auth.Service, sessions Pinger, gateway *cm360.Client, publisher *publish.Publisher, asst *assistant.Assistant, proxy http.Handler) *Server {
	return &Server{
		Logger:     logger,
		Metrics:    metrics,
		Config:     cfg,
		Auth:       authSvc,
		Sessions:   sessions,
		Gateway:    gateway,
		Workspaces: models.NewWorkspaceRegistry(),
		Publisher:  publisher,
		Assistant:  asst,
		Proxy:      proxy,
	}
}

// Routes registers every dashboard endpoint on r.
func (s *Server) Routes(r *mux.Router) {
	r.Use(middleware.WithRequestLogger(s.Logger, s.Config.SessionCookie))
	r.Use(middleware.AccessLog(s.Logger))

	r.HandleFunc("/health", s.instrument("health", s.HealthHandler)).Methods("GET")

	if s.Proxy != nil && s.Config.CM360ProxyPrefix != "" {
		r.PathPrefix(s.Config.CM360ProxyPrefix).Handler(s.Proxy)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", s.instrument("session_login", s.LoginHandler)).Methods("POST")
	api.HandleFunc("/session", s.instrument("session_current", s.CurrentSessionHandler)).Methods("GET")
	api.HandleFunc("/session", s.instrument("session_logout", s.LogoutHandler)).Methods("DELETE")

	api.HandleFunc("/advertisers", s.instrument("list_advertisers", s.scoped(s.ListAdvertisers))).Methods("GET")
	api.HandleFunc("/advertisers/{advertiserId}/campaigns", s.instrument("list_campaigns", s.scoped(s.ListCampaigns))).Methods("GET")
	api.HandleFunc("/advertisers/{advertiserId}/creatives", s.instrument("list_creatives", s.scoped(s.ListCreatives))).Methods("GET")
	api.HandleFunc("/advertisers/{advertiserId}/landing-pages", s.instrument("list_landing_pages", s.scoped(s.ListLandingPages))).Methods("GET")
	api.HandleFunc("/campaigns/{campaignId}/placements", s.instrument("list_placements", s.scoped(s.ListPlacements))).Methods("GET")
	api.HandleFunc("/sites", s.instrument("list_sites", s.scoped(s.ListSites))).Methods("GET")

	api.HandleFunc("/campaigns", s.instrument("add_campaign", s.scoped(s.AddCampaign))).Methods("POST")
	api.HandleFunc("/placements", s.instrument("add_placement", s.scoped(s.AddPlacement))).Methods("POST")
	api.HandleFunc("/placements/{id}", s.instrument("delete_placement", s.scoped(s.DeletePlacement))).Methods("DELETE")

	api.HandleFunc("/{grid}/{id}/draft", s.instrument("update_draft", s.scoped(s.UpdateDraft))).Methods("PATCH")
	api.HandleFunc("/{grid}/{id}/draft", s.instrument("discard_draft", s.scoped(s.DiscardDraft))).Methods("DELETE")

	api.HandleFunc("/{grid}/publish", s.instrument("publish", s.scoped(s.Publish))).Methods("POST")
	api.HandleFunc("/ads", s.instrument("create_ads", s.scoped(s.CreateAds))).Methods("POST")

	api.HandleFunc("/selection/{grid}", s.instrument("get_selection", s.scoped(s.GetSelection))).Methods("GET")
	api.HandleFunc("/selection/{grid}", s.instrument("set_selection", s.scoped(s.SetSelection))).Methods("PUT")

	api.HandleFunc("/naming/preview", s.instrument("naming_preview", s.scoped(s.PreviewNaming))).Methods("POST")
	api.HandleFunc("/naming/apply", s.instrument("naming_apply", s.scoped(s.ApplyNaming))).Methods("POST")
	api.HandleFunc("/placements/import", s.instrument("import_text", s.scoped(s.ImportText))).Methods("POST")
	api.HandleFunc("/placements/wizard", s.instrument("wizard_apply", s.scoped(s.ApplyWizard))).Methods("POST")

	api.HandleFunc("/assistant/chat", s.instrument("assistant_chat", s.AssistantChat)).Methods("POST")
	api.HandleFunc("/assistant/normalize", s.instrument("assistant_normalize", s.AssistantNormalize)).Methods("POST")
}

// instrument records request count and latency per endpoint.
func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.Metrics.IncrementRequests(endpoint, r.Method, itoa(rec.status))
		s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start))
	}
}

func (s *Server) logger(r *http.Request) *zap.Logger {
	return middleware.LoggerFromRequest(r, s.Logger)
}
