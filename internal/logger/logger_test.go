package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/DMarby/filterlab/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestOutputSplit(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log := logger.New(zap.InfoLevel, logger.WithOutput(zapcore.AddSync(&stdout), zapcore.AddSync(&stderr)))

	log.Debug("hidden")
	log.Infow("resolved", "tag", "canny")
	log.Error("failed")
	log.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(stdout.Bytes(), &entry); err != nil {
		t.Fatalf("stdout is not a single json entry: %s", stdout.String())
	}

	if entry["msg"] != "resolved" || entry["tag"] != "canny" || entry["level"] != "info" {
		t.Errorf("wrong entry %v", entry)
	}

	if !strings.Contains(stderr.String(), "failed") || strings.Contains(stderr.String(), "resolved") {
		t.Errorf("wrong stderr %s", stderr.String())
	}
}

func TestConsoleEncoding(t *testing.T) {
	var stdout bytes.Buffer
	log := logger.New(zap.InfoLevel, logger.WithConsoleEncoding(), logger.WithOutput(zapcore.AddSync(&stdout), zapcore.AddSync(&bytes.Buffer{})))

	log.Named("cli").Info("rendered")
	log.Sync()

	if !strings.Contains(stdout.String(), "INFO") || !strings.Contains(stdout.String(), "cli") {
		t.Errorf("wrong console line %s", stdout.String())
	}
}

func TestHTTPErrorLog(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log := logger.New(zap.DebugLevel, logger.WithOutput(zapcore.AddSync(&stdout), zapcore.AddSync(&stderr)))

	errorLog := logger.NewHTTPErrorLog(log.Named("http").With("component", "test"))
	errorLog.Print("http: URL query contains semicolon, which is no longer a supported separator")
	errorLog.Print("http: TLS handshake error from 127.0.0.1:1234: EOF")
	errorLog.Print("http: Accept error: too many open files")
	log.Sync()

	if strings.Count(stdout.String(), "\n") != 2 {
		t.Errorf("noise was not logged at debug level: %s", stdout.String())
	}

	if !strings.Contains(stderr.String(), "Accept error") {
		t.Errorf("error was not logged at error level: %s", stderr.String())
	}
}

func TestNop(t *testing.T) {
	log := logger.Nop()
	log.Infow("discarded", "key", "value")
}
