package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yurifrl/ebcrawler/pkg/csv"
	"github.com/yurifrl/ebcrawler/pkg/export"
	"github.com/yurifrl/ebcrawler/pkg/models"
	"github.com/yurifrl/ebcrawler/pkg/mount"
	"github.com/yurifrl/ebcrawler/pkg/points"
)

//go:embed templates/*.html
var templates embed.FS

// ProviderFunc opens an authenticated profile provider for one request.
type ProviderFunc func(ctx context.Context) (export.Provider, error)

// Server serves a page with the export trigger and the export endpoints.
type Server struct {
	logger   *log.Logger
	router   chi.Router
	template *template.Template
	provider ProviderFunc
	ebNumber string
}

func New(logger *log.Logger, provider ProviderFunc, ebNumber string) *Server {
	s := &Server{
		logger:   logger,
		router:   chi.NewRouter(),
		template: template.Must(template.ParseFS(templates, "templates/*.html")),
		provider: provider,
		ebNumber: ebNumber,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.withLogging)
	s.router.Get("/", s.handleHome)
	s.router.Get("/api/export", s.handleExport)
	s.router.Get("/api/transactions", s.handleTransactions)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on addr until ctx ends.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("shutdown failed", "err", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"EBNumber":  s.ebNumber,
		"IdleLabel": mount.IdleLabel,
		"BusyLabel": mount.BusyLabel,
		"Filename":  csv.Filename,
	}
	if err := s.template.ExecuteTemplate(w, "index.html", data); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to render page", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	provider, err := s.provider(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, "failed to log in", err)
		return
	}

	alerts := &alertRecorder{}
	exp := export.New(s.logger, provider, &responseDownloader{w: w}, alerts)
	if _, err := exp.Export(r.Context()); err != nil {
		s.respondExportError(w, r, alerts, err)
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	provider, err := s.provider(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, "failed to log in", err)
		return
	}

	alerts := &alertRecorder{}
	report, err := export.New(s.logger, provider, nil, alerts).Collect(r.Context())
	if err != nil {
		s.respondExportError(w, r, alerts, err)
		return
	}

	rows := report.Rows
	if rows == nil {
		rows = []models.Row{}
	}
	render.JSON(w, r, map[string]interface{}{
		"status":               "success",
		"points_available":     report.PointsAvailable,
		"total_points_for_use": report.TotalPointsForUse,
		"transactions":         rows,
	})
}

func (s *Server) respondExportError(w http.ResponseWriter, r *http.Request, alerts *alertRecorder, err error) {
	var unknown *points.UnknownCategoryError
	if errors.As(err, &unknown) {
		s.respondError(w, r, http.StatusUnprocessableEntity, alerts.last(unknown.Error()), err)
		return
	}
	s.respondError(w, r, http.StatusBadGateway, "export failed", err)
}

// responseDownloader sends the artifact as an attachment.
type responseDownloader struct {
	w http.ResponseWriter
}

func (d *responseDownloader) Download(_ context.Context, filename, mediaType string, data []byte) error {
	d.w.Header().Set("Content-Type", mediaType)
	d.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	_, err := d.w.Write(data)
	return err
}

// alertRecorder keeps alerts for the error response; the page shows them.
type alertRecorder struct {
	messages []string
}

func (a *alertRecorder) Alert(_ context.Context, message string) error {
	a.messages = append(a.messages, message)
	return nil
}

func (a *alertRecorder) last(fallback string) string {
	if len(a.messages) == 0 {
		return fallback
	}
	return a.messages[len(a.messages)-1]
}

// --- helpers ---

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging logs every request and recovers panics.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
