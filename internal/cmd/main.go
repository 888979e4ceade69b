package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DMarby/filterlab/internal/logger"
)

// Http timeouts
// WriteTimeout covers a cold resolve of the most expensive variant chain
const (
	ReadTimeout    = 5 * time.Second
	WriteTimeout   = time.Minute
	HandlerTimeout = 45 * time.Second
)

// WaitForInterrupt waits for SIGINT or SIGTERM, or for ctx to be canceled
func WaitForInterrupt(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		return fmt.Errorf("received signal %s", sig)
	case <-ctx.Done():
		return errors.New("canceled")
	}
}

// ShutdownServer gracefully shuts down server, letting in-flight requests finish within WriteTimeout
func ShutdownServer(log *logger.Logger, server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("error shutting down: %s", err)
	}
}
