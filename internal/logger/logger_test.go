package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Run("无效级别回落到 info", func(t *testing.T) {
		log, err := NewLogger(Config{Level: "loud"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("写入日志文件并附带服务名", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "logs", "gateway.log")
		log, err := NewLogger(Config{Level: "info", LogFile: file, MaxSize: 1})
		require.NoError(t, err)

		log.Info("contact gateway started")
		_ = log.Sync()

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), "contact gateway started")
		assert.Contains(t, string(data), `"service":"traguardo-contact"`)
	})

	t.Run("自定义服务名", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "cli.log")
		log, err := NewLogger(Config{Level: "debug", Service: "contact-cli", LogFile: file})
		require.NoError(t, err)

		log.Debug("submitting")
		_ = log.Sync()

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"service":"contact-cli"`)
	})
}

func TestWithRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithRequest(base, "req-1", "203.0.113.7").Info("contact message sent", Submitter("marie@example.com"))
	WithRequest(base, "", "").Info("no request id")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "req-1", first["request_id"])
	assert.Equal(t, "203.0.113.7", first["ip"])
	assert.Equal(t, "***@example.com", first["reply_to"])

	second := entries[1].ContextMap()
	assert.NotContains(t, second, "request_id")
	assert.Equal(t, "n/a", second["ip"])
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "***@example.com", RedactEmail("marie@example.com"))
	assert.Equal(t, "***", RedactEmail("not-an-email"))
	assert.Equal(t, "***@", RedactEmail("trailing@"))
}
