package main

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Simplici0/pestdirectory/internal/cache"
	"github.com/Simplici0/pestdirectory/internal/directory"
	"github.com/Simplici0/pestdirectory/internal/importer"
	"github.com/Simplici0/pestdirectory/internal/logging"
	"github.com/Simplici0/pestdirectory/internal/pricing"
	"github.com/Simplici0/pestdirectory/internal/sheets"
	"github.com/Simplici0/pestdirectory/internal/store"
	"github.com/Simplici0/pestdirectory/web"
)

const invalidSqftMessage = "invalid square footage"

type serverDeps struct {
	store         *store.Store
	cache         cache.Cache
	importer      *importer.Importer
	source        func(ctx context.Context) (sheets.Source, error)
	importOptions importer.Options
	logger        zerolog.Logger
}

type server struct {
	serverDeps
	pages map[string]*template.Template
}

func newServer(deps serverDeps) (*server, error) {
	pages, err := web.Pages()
	if err != nil {
		return nil, err
	}
	if deps.cache == nil {
		deps.cache = cache.Nop{}
	}
	return &server{serverDeps: deps, pages: pages}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/clients", s.handleListClients)
		r.Get("/clients/{slug}", s.handleGetClient)
		r.Get("/clients/{slug}/services/{service}/price", s.handlePrice)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/clients", http.StatusSeeOther)
	})
	r.Get("/clients", s.handleDirectoryPage)
	r.Get("/clients/{slug}", s.handleProfilePage)
	r.Get("/clients/{slug}/services/{service}/price.txt", s.handlePriceText)

	r.Post("/admin/import", s.handleImport)
	r.Get("/admin/import/last", s.handleLastImport)

	return r
}

// loadClient reads through the profile cache. Cache failures are logged and
// the store answers instead.
func (s *server) loadClient(ctx context.Context, slug string) (*directory.Client, error) {
	if c, ok, err := s.cache.GetProfile(ctx, slug); err != nil {
		s.logger.Warn().Err(err).Str("client", slug).Msg("profile cache read failed")
	} else if ok {
		return c, nil
	}

	c, err := s.store.GetClient(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetProfile(ctx, c); err != nil {
		s.logger.Warn().Err(err).Str("client", slug).Msg("profile cache write failed")
	}
	return c, nil
}

var errServiceNotFound = errors.New("service not found")

func (s *server) loadService(ctx context.Context, slug, service string) (*directory.Client, directory.Service, error) {
	c, err := s.loadClient(ctx, slug)
	if err != nil {
		return nil, directory.Service{}, err
	}
	svc, ok := c.Service(service)
	if !ok {
		return c, directory.Service{}, errServiceNotFound
	}
	return c, svc, nil
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.ListClients(r.Context())
	if err != nil {
		s.serverError(w, r, err, "failed to load clients")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.loadClient(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err, "failed to load client")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type priceResponse struct {
	Status    string             `json:"status"`
	Client    string             `json:"client"`
	Service   string             `json:"service"`
	Breakdown *pricing.Breakdown `json:"breakdown"`
}

type noMatchResponse struct {
	Status  string `json:"status"`
	Sqft    int    `json:"sqft"`
	Message string `json:"message"`
}

func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	c, svc, err := s.loadService(r.Context(), slug, chi.URLParam(r, "service"))
	if s.writeLookupError(w, r, err) {
		return
	}

	b, err := pricing.ResolveInput(r.URL.Query().Get("sqft"), svc.Tiers)
	var noMatch *pricing.NoMatchError
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, invalidSqftMessage)
	case errors.As(err, &noMatch):
		s.logger.Debug().Str("client", slug).Str("service", svc.Name).Int("sqft", noMatch.Sqft).Msg("no pricing tier matched")
		writeJSON(w, http.StatusOK, noMatchResponse{
			Status:  "no_match",
			Sqft:    noMatch.Sqft,
			Message: pricing.NoMatchMessage(noMatch.Sqft),
		})
	case err != nil:
		s.serverError(w, r, err, "failed to resolve price")
	default:
		writeJSON(w, http.StatusOK, priceResponse{Status: "ok", Client: c.Slug, Service: svc.Name, Breakdown: b})
	}
}

func (s *server) handlePriceText(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	_, svc, err := s.loadService(r.Context(), slug, chi.URLParam(r, "service"))
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, errServiceNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("client", slug).Msg("failed to load service")
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}

	b, err := pricing.ResolveInput(r.URL.Query().Get("sqft"), svc.Tiers)
	var noMatch *pricing.NoMatchError
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		http.Error(w, invalidSqftMessage, http.StatusBadRequest)
		return
	case errors.As(err, &noMatch):
		s.logger.Debug().Str("client", slug).Str("service", svc.Name).Int("sqft", noMatch.Sqft).Msg("no pricing tier matched")
		writeText(w, pricing.NoMatchMessage(noMatch.Sqft)+"\n")
		return
	case err != nil:
		http.Error(w, "failed to resolve price", http.StatusInternalServerError)
		return
	}

	var sb strings.Builder
	sb.WriteString(svc.Name)
	sb.WriteString("\n")
	sb.WriteString(pricing.RenderText(b))
	writeText(w, sb.String())
}

func (s *server) handleDirectoryPage(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.ListClients(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load clients")
		http.Error(w, "failed to load clients", http.StatusInternalServerError)
		return
	}
	s.renderTemplate(w, "clients.html", directoryViewData{Clients: clients})
}

func (s *server) handleProfilePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	c, err := s.loadClient(r.Context(), slug)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("client", slug).Msg("failed to load client")
		http.Error(w, "failed to load client", http.StatusInternalServerError)
		return
	}

	data := newProfileViewData(*c, strings.TrimSpace(r.URL.Query().Get("sqft")))
	status := http.StatusOK
	if data.InputError != "" {
		status = http.StatusBadRequest
	}
	s.renderTemplateStatus(w, status, "profile.html", data)
}

func (s *server) handleImport(w http.ResponseWriter, r *http.Request) {
	src, err := s.source(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("sheet source unavailable")
		writeError(w, http.StatusServiceUnavailable, "sheet source unavailable")
		return
	}

	opts := s.importOptions
	opts.Prune = r.URL.Query().Get("prune") == "true"

	stats, err := s.importer.Run(r.Context(), src, opts)
	if err != nil {
		s.serverError(w, r, err, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *server) handleLastImport(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.LastImportRun(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no import has run yet")
		return
	}
	if err != nil {
		s.serverError(w, r, err, "failed to load import run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// writeLookupError answers 404/500 for a failed client or service lookup and
// reports whether it wrote a response.
func (s *server) writeLookupError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "client not found")
	case errors.Is(err, errServiceNotFound):
		writeError(w, http.StatusNotFound, "service not found")
	default:
		s.serverError(w, r, err, "failed to load service")
	}
	return true
}

func (s *server) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	s.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	s.renderTemplateStatus(w, http.StatusOK, page, data)
}

func (s *server) renderTemplateStatus(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := s.pages[page]
	if !ok {
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error().Err(err).Str("page", page).Msg("failed to render template")
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
}
