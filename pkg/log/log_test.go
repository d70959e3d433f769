package log_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomat0w0/bid-anti-corruption/pkg/log"
)

func TestGetLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "error", input: "error", want: slog.LevelError},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "warning alias", input: "warning", want: slog.LevelWarn},
		{name: "info uppercase", input: "INFO", want: slog.LevelInfo},
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "unknown", input: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := log.GetLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, log.ErrUnknownLogLevel)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetFormat(t *testing.T) {
	t.Parallel()

	got, err := log.GetFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, log.FormatJSON, got)

	_, err = log.GetFormat("xml")
	require.ErrorIs(t, err, log.ErrUnknownLogFormat)
}

func TestCreateHandlerWithStrings(t *testing.T) {
	t.Parallel()

	for _, format := range log.AllFormats {
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			b := &bytes.Buffer{}

			h, err := log.CreateHandlerWithStrings(b, "info", format)
			require.NoError(t, err)
			require.NotNil(t, h)

			logger := slog.New(h)
			logger.Info("hello", slog.String("k", "v"))
			assert.NotEmpty(t, b.String())
		})
	}

	_, err := log.CreateHandlerWithStrings(&bytes.Buffer{}, "nope", "text")
	require.ErrorIs(t, err, log.ErrInvalidArgument)
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	logger := slog.Default().With(slog.String("component", "test"))
	ctx := log.NewContext(t.Context(), logger)

	assert.Same(t, logger, log.WithContext(ctx))
	assert.NotNil(t, log.WithContext(t.Context()))
}
