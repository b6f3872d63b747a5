package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concierge/internal/handler"
	"concierge/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting airport concierge")

	chat, err := a.chatService(cmd)
	if err != nil {
		return err
	}
	defer chat.Wait()

	limiter, err := newLimiter(a)
	if err != nil {
		return err
	}
	defer limiter.Close()

	gin.SetMode(a.cfg.Server.GinMode)
	router := handler.NewRouter(handler.RouterDeps{
		Chat:      chat,
		Amenities: a.store,
		Feedback:  a.store,
		Limiter:   limiter,
		Ping:      a.store.Ping,
		Server:    a.cfg.Server,
		Build:     handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
		Logger:    a.log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	a.log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.Info().Msg("server stopped")
	return nil
}

// newLimiter uses Redis when configured so replicas share a budget,
// otherwise a per-process limiter
func newLimiter(a *app) (ratelimit.Limiter, error) {
	perMinute := a.cfg.Redis.RequestsPerMin
	if !a.cfg.Redis.Enabled {
		a.log.Warn().Int("per_minute", perMinute).Msg("REDIS_ADDR not set, rate limiting per process")
		return ratelimit.NewMemoryLimiter(perMinute, time.Minute), nil
	}

	limiter, err := ratelimit.NewRedisLimiter(ratelimit.RedisConfig{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		Prefix:   a.cfg.Redis.Prefix,
	}, perMinute, time.Minute)
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("addr", a.cfg.Redis.Addr).Int("per_minute", perMinute).Msg("rate limiting via redis")
	return limiter, nil
}
