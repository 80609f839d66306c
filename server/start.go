package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	cachepackage "auth-demo/cache"
	"auth-demo/config"
	"auth-demo/database"
	"auth-demo/handlers"
	"auth-demo/monitoring"
	"auth-demo/provider"
	"auth-demo/ratelimit"
	"auth-demo/session"
	"auth-demo/signup"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/umakantv/go-utils/httpserver"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// newAuthChecker accepts "Bearer <adminToken>" on bearer routes.
// An empty admin token disables those routes.
func newAuthChecker(adminToken string) func(r *http.Request) (bool, httpserver.RequestAuth) {
	return func(r *http.Request) (bool, httpserver.RequestAuth) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || adminToken == "" || token == "" {
			return false, httpserver.RequestAuth{}
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			return false, httpserver.RequestAuth{}
		}
		return true, httpserver.RequestAuth{
			Type:   "bearer",
			Client: "admin",
			Claims: map[string]interface{}{"scope": "users:read"},
		}
	}
}

func StartServer(cfg *config.Config) {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})

	logger.Info("Starting auth demo...", zap.String("env", cfg.App.Env))

	if err := monitoring.InitSentry(cfg.Monitoring, cfg.App); err != nil {
		logger.Error("Failed to initialize Sentry", zap.Error(err))
	}
	defer monitoring.Flush()
	monitoring.Init()

	dbConn := database.InitializeDatabase(cfg.Database)
	defer dbConn.Close()

	cache := cachepackage.InitializeCache(cfg.Cache)
	defer cache.Close()

	var redisClient *redis.Client
	if cfg.Cache.Type == "redis" || cfg.RateLimit.Backend == "redis" {
		redisClient = newRedisClient(cfg.Cache)
		defer redisClient.Close()
	}
	var takeClient *redis.Client
	if cfg.Cache.Type == "redis" {
		takeClient = redisClient
	}
	store := cachepackage.NewStore(cache, takeClient)

	validator, err := signup.NewValidator(signup.Policy{
		NameMinLength:     cfg.Security.NameMinLength,
		PasswordMinLength: cfg.Security.PasswordMinLength,
	})
	if err != nil {
		logger.Error("Failed to build signup validator", zap.Error(err))
		os.Exit(1)
	}
	hasher, err := signup.NewBcryptHasher(cfg.Security.BcryptCost)
	if err != nil {
		logger.Error("Invalid bcrypt cost", zap.Error(err))
		os.Exit(1)
	}
	users := database.NewUserStore(dbConn)
	workflow := signup.NewWorkflow(validator, monitoring.InstrumentHasher(hasher), users)

	sessions, err := session.NewManager(session.Config{
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.CookieSecure || cfg.IsProduction(),
		Issuer:     cfg.App.Name,
	})
	if err != nil {
		logger.Error("Failed to build session manager", zap.Error(err))
		os.Exit(1)
	}
	states := session.NewStateStore(store, cfg.Session.StateTTL)
	google := provider.NewGoogle(provider.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Scopes:       cfg.Google.Scopes,
	})

	limiter := newSignupLimiter(cfg.RateLimit, redisClient)

	signupHandler := handlers.NewSignupHandler(workflow, limiter, cfg.RateLimit.TrustProxyHeaders)
	pageHandler := handlers.NewPageHandler(sessions)
	oauthHandler := handlers.NewOAuthFlowHandler(google, states, sessions)
	userHandler := handlers.NewUserHandler(users, store)

	server := httpserver.New(cfg.App.Port, newAuthChecker(cfg.App.AdminToken))

	register := func(name, method, path, authType string, h httpserver.HandlerFunc) {
		server.Register(httpserver.Route{
			Name:     name,
			Method:   method,
			Path:     path,
			AuthType: authType,
		}, instrument(name, h))
	}

	register("HealthCheck", "GET", "/health", "none", func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "` + cfg.App.Name + `"}`))
	})
	if cfg.Monitoring.MetricsEnabled {
		metrics := promhttp.Handler()
		server.Register(httpserver.Route{
			Name:     "Metrics",
			Method:   "GET",
			Path:     "/metrics",
			AuthType: "none",
		}, httpserver.HandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
			metrics.ServeHTTP(w, r)
		}))
	}

	register("Home", "GET", "/", "none", pageHandler.Home)
	register("Login", "GET", "/login", "none", pageHandler.Login)
	register("SignupForm", "GET", "/signup", "none", signupHandler.Form)
	register("Signup", "POST", "/signup", "none", signupHandler.Submit)

	register("SignIn", "GET", "/api/auth/signin/"+google.Name(), "none", oauthHandler.SignIn)
	register("Callback", "GET", "/api/auth/callback/"+google.Name(), "none", oauthHandler.Callback)
	register("Session", "GET", "/api/auth/session", "none", oauthHandler.Session)
	register("SignOut", "POST", "/api/auth/signout", "none", oauthHandler.SignOut)
	register("Logout", "POST", "/api/auth/logout", "none", oauthHandler.SignOut)

	register("GetUser", "GET", "/users/{id}", "bearer", userHandler.GetUser)

	logger.Info("Auth demo started", zap.String("port", cfg.App.Port))
	logger.Info("Pages: GET / /login /signup, POST /signup")
	logger.Info("OAuth: /api/auth/signin/google /api/auth/callback/google /api/auth/session /api/auth/signout")

	if err := server.Start(); err != nil {
		logger.Error("Server failed to start", zap.Error(err))
		os.Exit(1)
	}
}

func newRedisClient(cfg config.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// newSignupLimiter picks the signup throttle backend. A nil limiter disables
// throttling. The redis backend falls back to memory without a client.
func newSignupLimiter(cfg config.RateLimitConfig, client *redis.Client) ratelimit.Limiter {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Backend == "redis" && client != nil {
		return ratelimit.NewRedisLimiter(client, cfg.Requests, cfg.Window, cfg.Prefix)
	}
	return ratelimit.NewMemoryLimiter(cfg.Requests, cfg.Window)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency for route.
func instrument(route string, h httpserver.HandlerFunc) httpserver.HandlerFunc {
	return httpserver.HandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(ctx, rec, r)
		monitoring.ObserveRequest(route, r.Method, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}
