package observability

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// allowedPrefixes are the span attribute key prefixes that reach the exporter.
var allowedPrefixes = []string{
	"paracord.",
	"interner.",
	"http.",
	"error.",
}

// blockedKeys carry interned values and are always stripped.
var blockedKeys = map[string]bool{
	"paracord.value": true,
	"request.body":   true,
	"response.body":  true,
}

// attributeFilter is a SpanProcessor that drops every attribute outside the
// allow-list before the delegate sees the span. Raw values passed to the
// interner must never leave the process.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
}

// NewAttributeFilter returns a SpanProcessor that filters span attributes
// and forwards spans to delegate.
func NewAttributeFilter(delegate sdktrace.SpanProcessor) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate}
}

func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd forwards a filtered view; ReadOnlySpan attributes are immutable.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func isAllowed(key string) bool {
	if blockedKeys[key] {
		return false
	}

	if key == "error" {
		return true
	}

	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}

	return false
}

type filteredSpan struct {
	sdktrace.ReadOnlySpan
}

func (s *filteredSpan) Attributes() []attribute.KeyValue {
	orig := s.ReadOnlySpan.Attributes()
	filtered := make([]attribute.KeyValue, 0, len(orig))

	for _, kv := range orig {
		if isAllowed(string(kv.Key)) {
			filtered = append(filtered, kv)
		}
	}

	return filtered
}
