package logger

import (
	stdlog "log"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a logger
type Logger struct {
	*zap.SugaredLogger
}

type config struct {
	console bool
	stdout  zapcore.WriteSyncer
	stderr  zapcore.WriteSyncer
}

// Option configures a logger
type Option func(*config)

// WithConsoleEncoding logs human readable lines instead of JSON, for command line tools
func WithConsoleEncoding() Option {
	return func(c *config) {
		c.console = true
	}
}

// WithOutput replaces stdout and stderr, errors and above go to stderr
func WithOutput(stdout, stderr zapcore.WriteSyncer) Option {
	return func(c *config) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// New creates a new logger
func New(loglevel zapcore.Level, opts ...Option) *Logger {
	cfg := &config{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.console {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	// Log errors to stderr
	stderrLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= loglevel && lvl >= zapcore.ErrorLevel
	})

	stdoutLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= loglevel && lvl < zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(cfg.stderr), stderrLevel),
		zapcore.NewCore(encoder, zapcore.Lock(cfg.stdout), stdoutLevel),
	)

	log := zap.New(core, zap.AddCaller())

	// Redirect stdlib log package to zap
	_, _ = zap.RedirectStdLogAt(log, zapcore.ErrorLevel)

	return &Logger{
		log.Sugar(),
	}
}

// With returns a child logger carrying the given key/value pairs
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{l.SugaredLogger.With(args...)}
}

// Named returns a child logger for a component
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.SugaredLogger.Named(name)}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// Client noise http.Server reports through its ErrorLog, logged at debug level
var httpNoise = []string{
	"http: URL query contains semicolon",
	"http: TLS handshake error",
}

type httpErrorLog struct {
	log *Logger
}

func (h *httpErrorLog) Write(p []byte) (int, error) {
	m := strings.TrimSuffix(string(p), "\n")

	for _, prefix := range httpNoise {
		if strings.HasPrefix(m, prefix) {
			h.log.Debug(m)
			return len(p), nil
		}
	}

	h.log.Error(m)
	return len(p), nil
}

// NewHTTPErrorLog returns a stdlib logger for http.Server that forwards to log
func NewHTTPErrorLog(logger *Logger) *stdlog.Logger {
	return stdlog.New(&httpErrorLog{logger}, "", 0)
}
