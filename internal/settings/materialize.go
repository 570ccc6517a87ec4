package settings

import (
	"fmt"

	"github.com/eugenenazirov/tawala/internal/config"
)

// Components the application server knows how to mount.
const (
	AppStaticFiles = "staticfiles"
	AppMedia       = "media"
	AppUI          = "ui"
	AppAPI         = "api"
	AppProject     = "app"
)

// Middleware the application server knows how to build, in default order.
const (
	MiddlewareSecurity  = "security"
	MiddlewareHosts     = "hosts"
	MiddlewareCSP       = "csp"
	MiddlewareRequestID = "request_id"
	MiddlewareRateLimit = "rate_limit"
	MiddlewareLogging   = "logging"
	MiddlewareRecovery  = "recovery"
	MiddlewareCORS      = "cors"
)

// Template context processors.
const (
	ContextCSP     = "csp"
	ContextRequest = "request"
	ContextSite    = "site"
)

// TemplateEngine is one entry of TEMPLATES.
type TemplateEngine struct {
	Backend           string
	Dirs              []string
	AppDirs           bool
	ContextProcessors []string
}

// TailwindSettings is the TAILWINDCSS entry.
type TailwindSettings struct {
	Version string
	CLI     string
	Source  string
	Output  string
}

// CommandSettings is the COMMANDS entry.
type CommandSettings struct {
	Install []string
	Build   []string
}

// Materialized is the framework-shaped settings set derived from
// config.Settings. It is rebuilt on each load and never mutated afterwards.
type Materialized struct {
	PkgName    string
	PkgVersion string
	PkgDir     string
	BaseDir    string
	CLIDir     string
	SiteName   string

	SecretKey           string
	Debug               bool
	AllowedHosts        []string
	SecureSSLRedirect   bool
	SessionCookieSecure bool
	CSRFCookieSecure    bool

	InstalledApps   []string
	Middleware      []string
	RootURLConf     string
	WSGIApplication string
	Templates       []TemplateEngine

	Databases map[string]DatabaseSettings

	StaticURL  string
	StaticRoot string
	Storages   map[string]StorageBackend
	// Media is set only for filesystem storage.
	Media        *MediaSettings
	StorageToken string

	Commands CommandSettings
	Tailwind TailwindSettings

	LanguageCode string
	TimeZone     string
	UseI18N      bool
	UseTZ        bool

	AuthPasswordValidators []PasswordValidator
	SecureCSP              CSPPolicy
	LoginRedirectURL       string

	// Server is carried through unchanged for the development server.
	Server config.ServerConfig
}

// Materialize derives the framework settings from s. Unsupported database or
// storage selectors fail with an error matching ErrUnsupportedBackend.
func Materialize(s *config.Settings) (*Materialized, error) {
	if s == nil {
		return nil, fmt.Errorf("materialize settings: nil settings")
	}

	databases, err := materializeDatabases(s.Database)
	if err != nil {
		return nil, fmt.Errorf("materialize databases: %w", err)
	}

	storages, media, err := materializeStorages(s.Storage)
	if err != nil {
		return nil, fmt.Errorf("materialize storages: %w", err)
	}

	pkg := s.Package.Name
	m := &Materialized{
		PkgName:    pkg,
		PkgVersion: s.Package.Version,
		PkgDir:     s.Package.Dir,
		BaseDir:    s.Project.BaseDir,
		CLIDir:     s.Project.CLIDir,
		SiteName:   s.Project.SiteName,

		SecretKey:    s.Security.SecretKey,
		Debug:        s.Security.Debug,
		AllowedHosts: append([]string(nil), s.Security.AllowedHosts...),

		InstalledApps: []string{
			AppStaticFiles,
			AppMedia,
			AppUI,
			AppAPI,
			pkg + ".utils",
			pkg + ".ui",
			AppProject,
		},
		Middleware: []string{
			MiddlewareSecurity,
			MiddlewareHosts,
			MiddlewareCSP,
			MiddlewareRequestID,
			MiddlewareRateLimit,
			MiddlewareLogging,
			MiddlewareRecovery,
			MiddlewareCORS,
		},
		RootURLConf:     pkg + ".app.urls",
		WSGIApplication: pkg + ".api.application",
		Templates: []TemplateEngine{{
			Backend:           "html/template",
			Dirs:              []string{},
			AppDirs:           true,
			ContextProcessors: []string{ContextCSP, ContextRequest, ContextSite},
		}},

		Databases: databases,

		StaticURL:    StaticURL,
		StaticRoot:   s.Storage.StaticRoot,
		Storages:     storages,
		Media:        media,
		StorageToken: s.Storage.Token,

		Commands: CommandSettings{
			Install: append([]string(nil), s.Commands.Install...),
			Build:   append([]string(nil), s.Commands.Build...),
		},
		Tailwind: TailwindSettings{
			Version: s.Tailwind.Version,
			CLI:     s.Tailwind.CLI,
			Source:  s.Tailwind.Source,
			Output:  s.Tailwind.Output,
		},

		LanguageCode: s.Project.LanguageCode,
		TimeZone:     s.Project.TimeZone,
		UseI18N:      true,
		UseTZ:        true,

		AuthPasswordValidators: defaultPasswordValidators(),
		SecureCSP:              defaultCSP(),
		LoginRedirectURL:       s.Security.LoginRedirectURL,

		Server: s.Server,
	}

	if !m.Debug {
		m.SecureSSLRedirect = true
		m.SessionCookieSecure = true
		m.CSRFCookieSecure = true
	}

	return m, nil
}

// DefaultDatabase returns the primary connection.
func (m *Materialized) DefaultDatabase() DatabaseSettings {
	return m.Databases[DefaultDatabase]
}

// DefaultStorage returns the primary file storage backend.
func (m *Materialized) DefaultStorage() StorageBackend {
	return m.Storages[DefaultStorage]
}

// Map renders the settings with the framework's key names. Secrets are
// included; callers printing the map decide whether to mask them.
func (m *Materialized) Map() map[string]any {
	databases := make(map[string]any, len(m.Databases))
	for alias, db := range m.Databases {
		databases[alias] = db.Map()
	}

	storages := make(map[string]any, len(m.Storages))
	for alias, backend := range m.Storages {
		storages[alias] = backend.Map()
	}

	templates := make([]any, 0, len(m.Templates))
	for _, engine := range m.Templates {
		templates = append(templates, map[string]any{
			"BACKEND":  engine.Backend,
			"DIRS":     engine.Dirs,
			"APP_DIRS": engine.AppDirs,
			"OPTIONS": map[string]any{
				"context_processors": engine.ContextProcessors,
			},
		})
	}

	validators := make([]any, 0, len(m.AuthPasswordValidators))
	for _, v := range m.AuthPasswordValidators {
		validators = append(validators, map[string]any{"NAME": v.Name})
	}

	csp := make(map[string]any, len(m.SecureCSP))
	for directive, sources := range m.SecureCSP {
		csp[directive] = sources
	}

	out := map[string]any{
		"PKG_NAME":                 m.PkgName,
		"PKG_VERSION":              m.PkgVersion,
		"PKG_DIR":                  m.PkgDir,
		"BASE_DIR":                 m.BaseDir,
		"CLI_DIR":                  m.CLIDir,
		"SITE_NAME":                m.SiteName,
		"SECRET_KEY":               m.SecretKey,
		"DEBUG":                    m.Debug,
		"ALLOWED_HOSTS":            m.AllowedHosts,
		"INSTALLED_APPS":           m.InstalledApps,
		"MIDDLEWARE":               m.Middleware,
		"ROOT_URLCONF":             m.RootURLConf,
		"WSGI_APPLICATION":         m.WSGIApplication,
		"TEMPLATES":                templates,
		"DATABASES":                databases,
		"STATIC_URL":               m.StaticURL,
		"STATIC_ROOT":              m.StaticRoot,
		"STORAGES":                 storages,
		"STORAGE_TOKEN":            m.StorageToken,
		"COMMANDS":                 map[string]any{"INSTALL": m.Commands.Install, "BUILD": m.Commands.Build},
		"TAILWINDCSS":              map[string]any{"VERSION": m.Tailwind.Version, "CLI": m.Tailwind.CLI, "SOURCE": m.Tailwind.Source, "OUTPUT": m.Tailwind.Output},
		"LANGUAGE_CODE":            m.LanguageCode,
		"TIME_ZONE":                m.TimeZone,
		"USE_I18N":                 m.UseI18N,
		"USE_TZ":                   m.UseTZ,
		"AUTH_PASSWORD_VALIDATORS": validators,
		"SECURE_CSP":               csp,
		"LOGIN_REDIRECT_URL":       m.LoginRedirectURL,
	}

	if m.Media != nil {
		out["MEDIA_URL"] = m.Media.URL
		out["MEDIA_ROOT"] = m.Media.Root
	}
	if !m.Debug {
		out["SECURE_SSL_REDIRECT"] = m.SecureSSLRedirect
		out["SESSION_COOKIE_SECURE"] = m.SessionCookieSecure
		out["CSRF_COOKIE_SECURE"] = m.CSRFCookieSecure
	}

	return out
}
