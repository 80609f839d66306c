package handlers

import (
	"context"
	"encoding/json"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/umakantv/go-utils/httpserver"
	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// logRequest logs message with the route, method and path from ctx, plus
// the authenticated client on protected routes.
// Callers must never pass names, emails or passwords as fields.
func logRequest(ctx context.Context, level string, message string, fields ...zap.Field) {
	logMsg := time.Now().Format("2006-01-02 15:04:05") + " - " + describeRequest(ctx)
	if message != "" {
		logMsg += " - " + message
	}

	allFields := append([]zap.Field{
		zap.String("route", httpserver.GetRouteName(ctx)),
		zap.String("method", httpserver.GetRouteMethod(ctx)),
		zap.String("path", httpserver.GetRoutePath(ctx)),
	}, fields...)

	switch level {
	case "info":
		logger.Info(logMsg, allFields...)
	case "error":
		logger.Error(logMsg, allFields...)
	case "debug":
		logger.Debug(logMsg, allFields...)
	}
}

// describeRequest is "route - method - path", with " - client:<id>" when authenticated.
func describeRequest(ctx context.Context) string {
	desc := httpserver.GetRouteName(ctx) + " - " + httpserver.GetRouteMethod(ctx) + " - " + httpserver.GetRoutePath(ctx)
	if auth := httpserver.GetRequestAuth(ctx); auth != nil {
		desc += " - client:" + auth.Client
	}
	return desc
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// wantsJSON reports whether the client asked for JSON rather than a page.
func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case "application/json":
			return true
		case "text/html":
			return false
		}
	}
	return false
}

// clientIP is the peer address. With trustProxy set, the first
// X-Forwarded-For hop is used instead.
func clientIP(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// safeCallbackURL keeps same-site relative paths and falls back to "/".
func safeCallbackURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return "/"
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}
