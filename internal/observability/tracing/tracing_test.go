package tracing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsSensitiveKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/paystack/callback"),
		attribute.String("http.url", "/paystack/callback?reference=abc"),
		attribute.String("url.query", "reference=abc"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorFlattensChain(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("call failed: %w", base)

	safe := SafeError(wrapped)
	assert.EqualError(t, safe, "call failed: boom")
	assert.False(t, errors.Is(safe, base))
	assert.Nil(t, SafeError(nil))
}
