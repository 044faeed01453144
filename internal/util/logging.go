package util

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"document-ingestion-service/internal/apperror"
)

// SetupLogger : installs the process-wide slog logger. format is "json" or "text".
func SetupLogger(level, format string) {
	slog.SetDefault(NewLogger(os.Stdout, level, format))
}

func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogError : logs the failure and returns it wrapped with message
func LogError(message string, err error) error {
	slog.Error(message, "error", err)
	return fmt.Errorf("%s: %w", message, err)
}

type ErrorResponse struct {
	Error   string `json:"error" example:"NOT_FOUND"`
	Message string `json:"message" example:"document not found"`
	Code    int    `json:"code" example:"404"`
}

func HandleError(w http.ResponseWriter, kind apperror.Kind, message string, statusCode int) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   string(kind),
		Message: message,
		Code:    statusCode,
	})
}

// WriteAppError : maps any error onto the JSON error envelope
func WriteAppError(w http.ResponseWriter, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	HandleError(w, apperror.KindOf(err), apperror.MessageOf(err), status)
}

func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("write response body", "error", err)
	}
}
