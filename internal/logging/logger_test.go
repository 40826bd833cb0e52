package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TRACE, ParseLevel("trace"))
	assert.Equal(t, DEBUG, ParseLevel(" Debug "))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("verbose"), "неизвестный уровень должен давать INFO")
	assert.Equal(t, "WARN", WARN.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestLogger_WritesToConfiguredOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	logger, err := newLogger("world", Options{Level: INFO, Encoding: "json", Output: []string{path}})
	require.NoError(t, err)

	logger.Debug("скрыто %d", 1)
	logger.Info("tick %d", 7)
	logger.SetLevel(ERROR)
	logger.Warn("тоже скрыто")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"logger":"world"`)
	assert.Contains(t, out, "tick 7")
	assert.NotContains(t, out, "скрыто", "сообщения ниже минимального уровня не пишутся")
}

func TestDefaultLogger_NoopBeforeInit(t *testing.T) {
	CloseDefaultLogger()
	assert.NotPanics(t, func() {
		Info("до инициализации %s", "ничего не пишется")
		LogEntityRemoved("1", "tree")
	})
}

func TestLoggerManager(t *testing.T) {
	lm := &LoggerManager{loggers: make(map[string]*Logger)}

	first, err := lm.GetLogger("network")
	require.NoError(t, err)
	second, err := lm.GetLogger("network")
	require.NoError(t, err)
	assert.Same(t, first, second, "логгер компонента должен переиспользоваться")
	assert.Equal(t, []string{"network"}, lm.ListComponents())

	require.NoError(t, lm.SetLogLevel("network", ERROR))
	assert.Equal(t, ERROR, first.Level())
	assert.Error(t, lm.SetLogLevel("cache", DEBUG))

	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() { logger.Error("ничего не пишется") })
	assert.NoError(t, logger.Close())
}
