package auth

import (
	"context"

	"infinite-experiment/poolroster/internal/roster"
	"infinite-experiment/poolroster/internal/services"
)

type contextKey string

var (
	consoleKey    contextKey = "console"
	adminTokenKey contextKey = "admin_token"
	requestIDKey  contextKey = "request_id"
)

func SetConsole(ctx context.Context, console *roster.Console) context.Context {
	return context.WithValue(ctx, consoleKey, console)
}

// GetConsole returns the console resolved for this request, or nil.
func GetConsole(ctx context.Context) *roster.Console {
	if console, ok := ctx.Value(consoleKey).(*roster.Console); ok {
		return console
	}
	return nil
}

func SetAdminToken(ctx context.Context, token *services.AdminToken) context.Context {
	return context.WithValue(ctx, adminTokenKey, token)
}

func GetAdminToken(ctx context.Context) *services.AdminToken {
	if token, ok := ctx.Value(adminTokenKey).(*services.AdminToken); ok {
		return token
	}
	return nil
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}
