package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/metaview/internal/config"
	"github.com/skybi/metaview/internal/home"
	"github.com/skybi/metaview/internal/login"
	"github.com/skybi/metaview/internal/web/schema"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Service represents the web client serving the login and home views
type Service struct {
	server *http.Server

	Config   *config.Config
	Login    *login.Flow
	Home     *home.Controller
	Registry *prometheus.Registry

	writer *schema.Writer
}

// Router builds the HTTP router of the web client
func (service *Service) Router() http.Handler {
	// Create the HTTP schema writer
	service.writer = schema.NewWriter("web client")

	// Create the HTTP router
	router := chi.NewRouter()
	router.Use(middleware.RedirectSlashes)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(hlog.NewHandler(log.Logger))
	router.Use(hlog.AccessHandler(func(request *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(request).Debug().
			Str("request_id", middleware.GetReqID(request.Context())).
			Str("method", request.Method).
			Stringer("url", request.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("handled request")
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	// Register the views
	router.Get("/", func(writer http.ResponseWriter, request *http.Request) {
		http.Redirect(writer, request, "/home", http.StatusFound)
	})
	router.Get("/login", service.EndpointLogin)
	router.Get("/home", service.EndpointHome)

	// Register the endpoints the identity provider delivers credentials through
	service.Login.Routes(router)

	if service.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(service.Registry, promhttp.HandlerOpts{}))
	}
	return router
}

// Startup starts up the web client; errors raised while serving are sent into the given channel
func (service *Service) Startup(errs chan<- error) {
	server := &http.Server{
		Addr:              service.Config.ListenAddress,
		Handler:           service.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	service.server = server
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
}

// Shutdown shuts down the web client
func (service *Service) Shutdown() {
	if service.server != nil {
		service.server.Close()
		service.server = nil
	}
	service.Home.Unmount()
}

func (service *Service) render(writer http.ResponseWriter, name string, data any) {
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.Header().Set("Cache-Control", "no-store")
	if err := templates.ExecuteTemplate(writer, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("could not render view")
	}
}
