// Package statusapi exposes the current board over HTTP for remote displays
// and health checks. It reads the store like any other consumer.
package statusapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/stationboard/internal/display"
	"github.com/five82/stationboard/internal/logging"
	"github.com/five82/stationboard/internal/logtail"
)

const shutdownTimeout = 5 * time.Second

// NewRouter wires the read-only endpoints. logPath may be empty, in which
// case /api/logs always returns no lines.
func NewRouter(source display.Source, logPath string, logger *slog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		snap := source.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"generation":  snap.Generation,
			"lastUpdated": snap.LastUpdated,
		})
	})

	api := router.Group("/api")
	{
		api.GET("/snapshot", func(c *gin.Context) {
			c.JSON(http.StatusOK, source.Snapshot())
		})
		api.GET("/logs", logsHandler(logPath))
	}
	return router
}

// Listen binds addr so that an unusable address fails startup instead of
// surfacing after the board is already running.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

// Serve runs the server on ln until ctx is cancelled. It closes ln.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("status server starting", "address", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("status server failed", "address", ln.Addr().String(), "error", err)
		return err
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}

// logsHandler serves the tail of the log file: ?lines=N&level=warn.
func logsHandler(logPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines := 0
		if raw := c.Query("lines"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "lines must be a non-negative integer"})
				return
			}
			lines = n
		}

		out := []string{}
		if logPath != "" {
			read, err := logtail.Read(logPath, lines)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			out = read
		}
		if level := c.Query("level"); level != "" {
			out = logtail.Filter(out, logging.ParseLevel(level))
		}
		c.JSON(http.StatusOK, gin.H{"lines": out})
	}
}
