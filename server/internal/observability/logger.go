package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldViewID is the field name for view ID.
	LogFieldViewID = "view_id"
	// LogFieldCreatorID is the field name for the principal whose notes are shown.
	LogFieldCreatorID = "creator_id"
	// LogFieldSurface is the field name for the surface hosting the view.
	LogFieldSurface = "surface"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
	// LogFieldNodes is the field name for node count.
	LogFieldNodes = "nodes"
	// LogFieldEdges is the field name for edge count.
	LogFieldEdges = "edges"
)

// ViewContext carries the structured logging identity of one mounted graph view.
type ViewContext struct {
	ViewID    string
	CreatorID int32
	Surface   string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewViewContext creates a view context with a generated view ID.
func NewViewContext(logger *slog.Logger, surface string, creatorID int32) *ViewContext {
	return NewViewContextWithID(logger, generateViewID(), surface, creatorID)
}

// NewViewContextWithID creates a view context with a specific view ID.
func NewViewContextWithID(logger *slog.Logger, viewID, surface string, creatorID int32) *ViewContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewContext{
		ViewID:    viewID,
		CreatorID: creatorID,
		Surface:   surface,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// WithFields returns a new logger with the view attributes and attrs.
func (v *ViewContext) WithFields(attrs ...slog.Attr) *slog.Logger {
	combined := v.baseAttrsAppended(attrs...)
	args := make([]any, 0, len(combined))
	for _, attr := range combined {
		args = append(args, attr)
	}
	return v.Logger.With(args...)
}

// Info logs an info message.
func (v *ViewContext) Info(msg string, attrs ...slog.Attr) {
	v.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, v.baseAttrsAppended(attrs...)...)
}

// Debug logs a debug message.
func (v *ViewContext) Debug(msg string, attrs ...slog.Attr) {
	v.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, v.baseAttrsAppended(attrs...)...)
}

// Warn logs a warning message.
func (v *ViewContext) Warn(msg string, attrs ...slog.Attr) {
	v.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, v.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error.
func (v *ViewContext) Error(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))
	v.Logger.LogAttrs(context.Background(), slog.LevelError, msg, v.baseAttrsAppended(attrs...)...)
}

// Duration returns the elapsed time since the view was created.
func (v *ViewContext) Duration() time.Duration {
	return time.Since(v.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (v *ViewContext) DurationMs() int64 {
	return v.Duration().Milliseconds()
}

func (v *ViewContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldViewID, v.ViewID),
		slog.Int64(LogFieldCreatorID, int64(v.CreatorID)),
		slog.String(LogFieldSurface, v.Surface),
	}
	return append(base, attrs...)
}

func generateViewID() string {
	return uuid.New().String()
}

type ctxKey struct{}

// WithViewContext adds the view context to the context.
func WithViewContext(ctx context.Context, viewCtx *ViewContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, viewCtx)
}

// FromContext extracts the view context from the context.
func FromContext(ctx context.Context) (*ViewContext, bool) {
	viewCtx, ok := ctx.Value(ctxKey{}).(*ViewContext)
	return viewCtx, ok
}
