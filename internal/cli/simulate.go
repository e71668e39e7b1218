package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizmon-client/internal/config"
	"quizmon-client/internal/infra/memory"
	redisrooms "quizmon-client/internal/infra/redis"
	"quizmon-client/internal/simulator"
)

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var quizFile, port string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a local match server for development and demos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if quizFile != "" {
				cfg.Simulate.QuizFile = quizFile
			}
			if port != "" {
				cfg.Simulate.Port = port
			}
			return runSimulate(cmd.Context(), cfg, opts.logger())
		},
	}
	cmd.Flags().StringVar(&quizFile, "quiz", "", "YAML quiz file (built-in sample when omitted)")
	cmd.Flags().StringVar(&port, "port", "", "listen port")
	return cmd
}

func runSimulate(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	quiz := simulator.SampleContent()
	if cfg.Simulate.QuizFile != "" {
		loaded, err := simulator.LoadContent(cfg.Simulate.QuizFile)
		if err != nil {
			return fmt.Errorf("load quiz file: %w", err)
		}
		quiz = loaded
	}

	store, closeStore, err := roomStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := simulator.New(store, quiz, cfg.Simulate.QuestionSeconds, log)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Simulate.Port,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("simulator listening",
			zap.String("addr", httpSrv.Addr), zap.String("quiz", quiz.Title))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("simulator shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}

// roomStore picks redis-backed room tracking when an address is configured,
// plain memory otherwise.
func roomStore(ctx context.Context, cfg config.Config, log *zap.Logger) (simulator.RoomStore, func(), error) {
	addr := cfg.Simulate.Redis.Addr
	if addr == "" {
		return memory.NewRoomStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Simulate.Redis.Password,
		DB:       cfg.Simulate.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis at %s: %w", addr, err)
	}
	log.Info("using redis room store", zap.String("addr", addr))

	ttl := config.Duration(cfg.Simulate.Redis.TTL, time.Hour)
	return redisrooms.NewRoomStore(client, ttl), func() { _ = client.Close() }, nil
}
