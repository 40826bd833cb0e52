package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации. Неизвестное значение даёт INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// zapLevel сопоставляет наш уровень с уровнем zap. TRACE у zap нет, пишем его как debug.
func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case TRACE, DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Options задаёт параметры создания логгера
type Options struct {
	Level    LogLevel
	Encoding string // "console" или "json"
	Output   []string
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Level:    INFO,
		Encoding: "console",
		Output:   []string{"stdout"},
	}
}

// Logger представляет логгер компонента поверх zap
type Logger struct {
	component string
	sugar     *zap.SugaredLogger
	base      *zap.Logger

	mu       sync.RWMutex
	minLevel LogLevel
}

var (
	defaultOptions = DefaultOptions()
	defaultLogger  *Logger
	defaultMu      sync.RWMutex
)

// Configure задаёт параметры, с которыми будут создаваться новые логгеры.
// Вызывается до InitDefaultLogger.
func Configure(opts Options) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if opts.Encoding == "" {
		opts.Encoding = "console"
	}
	if len(opts.Output) == 0 {
		opts.Output = []string{"stdout"}
	}
	defaultOptions = opts
}

// NewLogger создаёт логгер для компонента
func NewLogger(component string) (*Logger, error) {
	defaultMu.RLock()
	opts := defaultOptions
	defaultMu.RUnlock()
	return newLogger(component, opts)
}

func newLogger(component string, opts Options) (*Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.Encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(opts.Level.zapLevel()),
		Development:      false,
		Encoding:         opts.Encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      opts.Output,
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	base, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("ошибка создания zap логгера: %w", err)
	}
	if component != "" {
		base = base.Named(component)
	}

	return &Logger{
		component: component,
		sugar:     base.Sugar(),
		base:      base,
		minLevel:  opts.Level,
	}, nil
}

// NewNopLogger возвращает логгер, который ничего не пишет
func NewNopLogger() *Logger {
	base := zap.NewNop()
	return &Logger{sugar: base.Sugar(), base: base, minLevel: ERROR}
}

// InitDefaultLogger инициализирует глобальный логгер
func InitDefaultLogger(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
	return nil
}

// CloseDefaultLogger сбрасывает буферы глобального логгера
func CloseDefaultLogger() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger != nil {
		_ = defaultLogger.Close()
		defaultLogger = nil
	}
}

// SetLevel меняет минимальный уровень логгера
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.minLevel = level
	l.mu.Unlock()
}

// Level возвращает минимальный уровень логгера
func (l *Logger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minLevel
}

// Zap возвращает нижележащий zap логгер
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

// Close сбрасывает буферы
func (l *Logger) Close() error {
	if l == nil || l.base == nil {
		return nil
	}
	// Sync на stdout/stderr возвращает EINVAL на linux, это не ошибка
	_ = l.base.Sync()
	return nil
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if l == nil || level < l.Level() {
		return
	}
	switch level {
	case TRACE:
		l.sugar.Debugf("[TRACE] "+format, args...)
	case DEBUG:
		l.sugar.Debugf(format, args...)
	case INFO:
		l.sugar.Infof(format, args...)
	case WARN:
		l.sugar.Warnf(format, args...)
	case ERROR:
		l.sugar.Errorf(format, args...)
	}
}

// logMessage пишет в глобальный логгер, если он инициализирован
func logMessage(level LogLevel, format string, args ...interface{}) {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	if logger == nil {
		return
	}
	logger.log(level, format, args...)
}

// Trace логирует сообщение уровня TRACE
func Trace(format string, args ...interface{}) { logMessage(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func Debug(format string, args ...interface{}) { logMessage(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func Info(format string, args ...interface{}) { logMessage(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func Warn(format string, args ...interface{}) { logMessage(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func Error(format string, args ...interface{}) { logMessage(ERROR, format, args...) }

// LogEntityMovement логирует движение сущности
func LogEntityMovement(entityID string, fromX, fromY, toX, toY float64) {
	Trace("Entity %s movement: (%.2f,%.2f) -> (%.2f,%.2f)", entityID, fromX, fromY, toX, toY)
}

// LogEntityRemoved логирует удаление сущности при prune
func LogEntityRemoved(entityID string, entityType string) {
	Debug("Entity %s (%s) pruned", entityID, entityType)
}
