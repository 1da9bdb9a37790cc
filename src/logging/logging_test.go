package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"git.blogfront.dev/blogfront/src/oops"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPrettyWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(NewPrettyZerologWriter(&buf))

	logger.Error().
		Err(oops.New(errors.New("backend down"), "failed to load article")).
		Str("article", "hello").
		Msg("load failed")

	out := buf.String()
	assert.Contains(t, out, "load failed")
	assert.Contains(t, out, "failed to load article: backend down")
	assert.Contains(t, out, `article: "hello"`)
}

func TestPrettyWriterPassesThroughGarbage(t *testing.T) {
	var buf bytes.Buffer
	w := NewPrettyZerologWriter(&buf)
	n, err := w.Write([]byte("not json\n"))
	assert.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, "not json\n", buf.String())
}

func TestLoggerContext(t *testing.T) {
	assert.Equal(t, GlobalLogger(), ExtractLogger(context.Background()))

	logger := zerolog.Nop()
	ctx := AttachLoggerToContext(&logger, context.Background())
	assert.Equal(t, &logger, ExtractLogger(ctx))
}

func TestPrettyWriterRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(NewPrettyZerologWriter(&buf))

	logger.Info().Str("request", "0123456789abcdef").Msg("served")

	out := buf.String()
	assert.Contains(t, out, "[01234567]")
	assert.Contains(t, out, "served")
	assert.NotContains(t, out, "Fields")
}
