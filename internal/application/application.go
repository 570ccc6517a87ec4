package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/tawala/internal/api"
	"github.com/eugenenazirov/tawala/internal/config"
	"github.com/eugenenazirov/tawala/internal/postinit"
	"github.com/eugenenazirov/tawala/internal/settings"
	"github.com/eugenenazirov/tawala/internal/storage"
	"github.com/eugenenazirov/tawala/internal/ui"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	settings *settings.Materialized
	accessor *postinit.Accessor
	storage  storage.Storage
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// Option configures New.
type Option func(*options)

type options struct {
	storage     storage.Storage
	storageOpts []storage.Option
}

// WithStorage replaces the storage backend selected from the settings.
func WithStorage(s storage.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithStorageOptions passes options to storage.New.
func WithStorageOptions(opts ...storage.Option) Option {
	return func(o *options) {
		o.storageOpts = append(o.storageOpts, opts...)
	}
}

// New initializes the application from the materialized settings.
func New(m *settings.Materialized, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	accessor, err := postinit.New(m)
	if err != nil {
		return nil, err
	}

	store := o.storage
	if store == nil {
		store, err = storage.New(m, o.storageOpts...)
		if err != nil {
			return nil, err
		}
	}

	renderer, err := ui.NewRenderer(ui.NewHelpers(accessor))
	if err != nil {
		return nil, fmt.Errorf("failed to build page renderer: %w", err)
	}

	handler := api.NewHandler(store, renderer, logger,
		api.WithVersion(accessor.PkgVersion),
		api.WithLanguageCode(m.LanguageCode),
	)

	routerOpts := []api.RouterOption{
		api.WithLogging(m.Server.RequestLogging),
		api.WithRateLimit(m.Server),
		api.WithMiddleware(m.Middleware),
		api.WithComponents(m.InstalledApps),
		api.WithAllowedHosts(m.AllowedHosts),
		api.WithSSLRedirect(m.SecureSSLRedirect),
		api.WithCSP(m.SecureCSP),
	}
	for _, component := range m.InstalledApps {
		switch component {
		case settings.AppStaticFiles:
			routerOpts = append(routerOpts, api.WithMount(m.StaticURL, StaticHandler(m.StaticURL, staticDirs(m)...)))
		case settings.AppMedia:
			if m.Media == nil {
				logger.Debug("media serving disabled for storage backend", zap.String("backend", accessor.StorageBackend))
				continue
			}
			routerOpts = append(routerOpts, api.WithMount(m.Media.URL,
				http.StripPrefix(m.Media.URL, http.FileServer(http.Dir(m.Media.Root)))))
		case settings.AppAPI, settings.AppUI:
		default:
			logger.Debug("installed component has no handlers", zap.String("component", component))
		}
	}

	router, err := api.NewRouter(handler, logger, routerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	return &App{
		settings: m,
		accessor: accessor,
		storage:  store,
		handler:  handler,
		router:   router,
		logger:   logger,
		server:   NewServer(m.Server, router),
	}, nil
}

// staticDirs lists the directories static files are served from, in lookup
// order: the collected static root, then the project's static directory.
func staticDirs(m *settings.Materialized) []string {
	dirs := []string{}
	if m.StaticRoot != "" {
		dirs = append(dirs, m.StaticRoot)
	}
	if m.BaseDir != "" {
		dirs = append(dirs, filepath.Join(m.BaseDir, "static"))
	}
	return dirs
}

// StaticHandler serves prefix from the first of dirs holding the requested
// file, falling back to the embedded ui assets.
func StaticHandler(prefix string, dirs ...string) http.Handler {
	layers := make(layeredFS, 0, len(dirs)+1)
	for _, dir := range dirs {
		layers = append(layers, http.Dir(dir))
	}
	layers = append(layers, http.FS(ui.StaticFS()))
	return http.StripPrefix(prefix, http.FileServer(layers))
}

type layeredFS []http.FileSystem

func (l layeredFS) Open(name string) (http.File, error) {
	for _, fsys := range l {
		f, err := fsys.Open(name)
		if err == nil {
			return f, nil
		}
	}
	return nil, os.ErrNotExist
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	addr := cfg.Addr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Bool("debug", a.settings.Debug),
			zap.String("storage", a.accessor.StorageBackend),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Settings returns the post-init settings accessor.
func (a *App) Settings() *postinit.Accessor {
	return a.accessor
}
