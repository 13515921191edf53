package logger

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
)

// contextKey is a private type to avoid collisions in context.
type contextKey string

const (
	ctxRID     contextKey = "rid"
	ctxTurnID  contextKey = "turn_id"
	ctxUserID  contextKey = "user_id"
	ctxConvID  contextKey = "conversation_id"
	ctxChannel contextKey = "channel"
	ctxLogger  contextKey = "logger"
	ctxHandler contextKey = "handler"
)

// WithLogger stores the provided slog.Logger in context for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger, log)
}

// FromContext extracts slog.Logger from context or returns global default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if v := ctx.Value(ctxLogger); v != nil {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID attaches turn correlation id into context.
func WithRID(ctx context.Context, rid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRID, rid)
}

// RIDFrom extracts rid from context if present.
func RIDFrom(ctx context.Context) string {
	return stringFromContext(ctx, ctxRID)
}

// WithTurnMeta attaches common turn identifiers to context.
func WithTurnMeta(ctx context.Context, turnID, conversationID, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxTurnID, turnID)
	ctx = context.WithValue(ctx, ctxConvID, conversationID)
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return ctx
}

// WithChannel stores the originating channel id in context.
func WithChannel(ctx context.Context, channel string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if channel == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxChannel, channel)
}

// WithHandler stores handler identifier in context for downstream logs.
func WithHandler(ctx context.Context, handler string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxHandler, handler)
}

// HandlerFrom returns handler identifier from context if present.
func HandlerFrom(ctx context.Context) string {
	return stringFromContext(ctx, ctxHandler)
}

// TurnIDFrom extracts turn identifier from context.
func TurnIDFrom(ctx context.Context) string {
	return stringFromContext(ctx, ctxTurnID)
}

// ConversationIDFrom extracts conversation id from context.
func ConversationIDFrom(ctx context.Context) string {
	return stringFromContext(ctx, ctxConvID)
}

// UserIDFrom extracts user id from context.
func UserIDFrom(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

// ChannelFrom extracts channel id from context.
func ChannelFrom(ctx context.Context) string {
	return stringFromContext(ctx, ctxChannel)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Sanitize trims non-printable runes from s to keep logs clean.
// It removes control characters (Unicode categories Cc, Cf) except for tab and newline.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			// skip
			continue
		}
		// also skip DEL character
		if r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeLimit applies Sanitize and limits the output length in runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	cleaned := Sanitize(s)
	// fast path
	if len([]rune(cleaned)) <= max {
		return cleaned
	}
	r := []rune(cleaned)
	return string(r[:max])
}

// BuildRID returns a correlation identifier in the format turnID:conversationID:userID.
func BuildRID(turnID, conversationID, userID string) string {
	return turnID + ":" + conversationID + ":" + userID
}

// CompactRID shortens colon-separated RID segments to at most eight runes each,
// joined by dots for readability. When the input does not match the expected
// format it is returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	if rid == "" {
		return ""
	}
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	compact := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return rid
		}
		if r := []rune(part); len(r) > 8 {
			part = string(r[:8])
		}
		compact = append(compact, part)
	}
	return strings.Join(compact, ".")
}
