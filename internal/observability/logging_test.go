package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepoLogger_Write(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Load()
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { logger.Store(prev) })

	l := NewRepoLogger("feeds")
	l.Write(context.Background(), "create", nil, slog.Uint64("feed_id", 3))
	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), `msg="repository create"`)
	assert.Contains(t, buf.String(), "feed_id=3")
	assert.Contains(t, buf.String(), "table=feeds")

	buf.Reset()
	l.Write(context.Background(), "delete", errors.New("fk violation"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), `error="fk violation"`)
}

func TestSetLogger_IgnoresNil(t *testing.T) {
	prev := logger.Load()
	SetLogger(nil)
	assert.Same(t, prev, logger.Load())
}
