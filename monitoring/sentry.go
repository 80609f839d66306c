package monitoring

import (
	"time"

	"auth-demo/config"

	"github.com/getsentry/sentry-go"
)

// InitSentry configures sentry if DSN provided.
func InitSentry(cfg config.MonitoringConfig, app config.AppConfig) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: app.Env,
		ServerName:  app.Name,
	})
}

// CaptureError reports err with the route it happened on. It is a no-op
// until InitSentry has configured a client.
func CaptureError(err error, route string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("route", route)
		sentry.CaptureException(err)
	})
}

// Flush ensures buffered events ship.
func Flush() {
	sentry.Flush(2 * time.Second)
}
