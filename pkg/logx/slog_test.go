package logx_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"fareglitch/pkg/logx"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, want, logx.ParseLevel(in))
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	rq := require.New(t)

	var buf bytes.Buffer
	log := logx.NewLogger(&buf, "warn", "json")

	log.Info("hidden")
	log.Warn("shown", slog.String(logx.FieldDealNumber, "MF001"))

	rq.NotContains(buf.String(), "hidden")
	rq.Contains(buf.String(), `"deal-number":"MF001"`)
}
