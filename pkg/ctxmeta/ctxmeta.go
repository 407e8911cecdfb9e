// Пакет ctxmeta — нейтральный слой для работы с метаданными запроса,
// которые прокидываются через context.Context (request_id, trace_id и т.д.).
// HTTP-слой, оркестратор и логгер зависят от небольшого общего пакета, но не друг от друга.
package ctxmeta

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

const (
	// Ключи контекста (неэкспортируемые типы — чтобы избежать коллизий).
	KeyRequestID ctxKey = "request_id"
)

// WithRequestID кладёт request_id в контекст (если пусто — ничего не делает).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, KeyRequestID, requestID)
}

// RequestIDFromContext достаёт request_id из контекста.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(KeyRequestID).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// Detach переносит метаданные запроса (request_id и активный span) в base.
// Отмена и дедлайн from не наследуются: так живут фоновые попытки,
// пережившие запрос, который их запустил.
func Detach(base, from context.Context) context.Context {
	out := base
	if sc := trace.SpanContextFromContext(from); sc.IsValid() {
		out = trace.ContextWithSpanContext(out, sc)
	}
	if rid, ok := RequestIDFromContext(from); ok {
		out = WithRequestID(out, rid)
	}
	return out
}

// Fields — пары ключ/значение для структурного логгера; отсутствующие метаданные пропускаются.
func Fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var kv []any
	if rid, ok := RequestIDFromContext(ctx); ok {
		kv = append(kv, "request_id", rid)
	}
	if tid, ok := TraceIDFromContext(ctx); ok {
		kv = append(kv, "trace_id", tid)
	}
	if sid, ok := SpanIDFromContext(ctx); ok {
		kv = append(kv, "span_id", sid)
	}
	return kv
}
