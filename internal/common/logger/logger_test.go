package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_WritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "issuer"})

	log.Info("identifier issued", map[string]interface{}{
		"applicationId": "app-123456-deadbeef",
		"error":         errors.New("ignored"),
	})

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "issuer", fields["component"])
	assert.Equal(t, "app-123456-deadbeef", fields["applicationId"])
	assert.Equal(t, "ignored", fields["error"])
}

func TestZapWrapper_WithErrorAttachesCause(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithError(errors.New("connection refused"))

	log.Warn("failed to index application", map[string]interface{}{"applicationId": "app-123456-deadbeef"})

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "connection refused", fields["error"])
	assert.Equal(t, "app-123456-deadbeef", fields["applicationId"])
}

func TestContextRoundTrip(t *testing.T) {
	fallback := NewNoOpLogger()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := NewTestLogger(t)
	ctx := IntoContext(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx, fallback))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", MaskToken("short"))
	assert.Equal(t, "eyJhbGciOi...", MaskToken("eyJhbGciOiJIUzI1NiJ9.payload.sig"))
}
