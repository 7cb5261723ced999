package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/observability"
	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// Header names carrying the caller scope resolved by the upstream auth
// layer. Brand scoping is enforced server side from these values; the
// UI merely echoes what the session service issued.
const (
	HeaderAllowedBrands = "x-user-allowed-brands"
	HeaderRole          = "x-user-role"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// CallerContextMiddleware parses the caller scope headers into a
// CallerContext. An absent allow-list header means an unrestricted
// caller; a malformed one fails closed with an empty allow-list.
func CallerContextMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := shared.CallerContext{Role: strings.TrimSpace(r.Header.Get(HeaderRole))}
			if raw := strings.TrimSpace(r.Header.Get(HeaderAllowedBrands)); raw != "" {
				var brands []string
				// A present header must resolve to a concrete list;
				// JSON null decodes to a nil slice, which CallerContext
				// would read as unrestricted.
				if err := json.Unmarshal([]byte(raw), &brands); err != nil || brands == nil {
					logger.Warn("malformed allowed-brands header", slog.String("path", r.URL.Path))
					brands = []string{}
				}
				caller.AllowedBrands = brands
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithCaller(r.Context(), caller)))
		})
	}
}

// MiddlewareStack installs the application middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		CallerContextMiddleware(cfg.Logger),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}
