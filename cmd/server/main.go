package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hongminglow/foodie-be/internal/config"
	"github.com/hongminglow/foodie-be/internal/events"
	"github.com/hongminglow/foodie-be/internal/server"
	"github.com/hongminglow/foodie-be/internal/storage"
	"github.com/hongminglow/foodie-be/internal/storage/memory"
	"github.com/hongminglow/foodie-be/internal/storage/postgres"
	"github.com/hongminglow/foodie-be/internal/users"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "foodie",
		Short:         "Food ordering storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE:  runMigrate,
		},
		promoteCmd(),
	)
	return root
}

func promoteCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Give an existing account the admin role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.StoragePostgres {
				return fail(errors.New("promote needs STORAGE_DRIVER=postgres"))
			}
			store, err := postgres.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fail(fmt.Errorf("init database: %w", err))
			}
			defer store.Close()

			user, err := users.NewService(store).Promote(cmd.Context(), email)
			if err != nil {
				return fail(fmt.Errorf("promote %s: %w", email, err))
			}
			slog.Info("account promoted", "uid", user.ID, "email", user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the account to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return fail(fmt.Errorf("init storage: %w", err))
	}
	defer store.Close()

	publisher := buildPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("close event publishers", "err", err)
		}
	}()

	srv := server.New(cfg, store, publisher, server.Options{})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("foodie backend listening", "addr", cfg.HTTPAddress(), "storage", cfg.StorageDriver)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return fail(fmt.Errorf("http server: %w", err))
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		slog.Error("graceful shutdown error", "err", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if cfg.StorageDriver != config.StoragePostgres {
		return fail(errors.New("migrate needs STORAGE_DRIVER=postgres"))
	}
	// New applies the embedded migrations before returning.
	store, err := postgres.New(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return fail(fmt.Errorf("migrate: %w", err))
	}
	store.Close()
	slog.Info("migrations applied")
	return nil
}

// setup loads .env and config and installs the JSON logger.
func setup() (config.Config, error) {
	loadLocalEnv()
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fail(fmt.Errorf("load config: %w", err))
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.StorageDriver == config.StorageMemory {
		slog.Warn("using in-memory storage; data is lost on exit")
		return memory.New(), nil
	}
	return postgres.New(ctx, cfg.DatabaseURL)
}

// buildPublisher always logs events and adds Kafka and Telegram when they
// are configured. A sink that cannot start is skipped.
func buildPublisher(cfg config.Config) events.Multi {
	publishers := events.Multi{events.LogPublisher{}}
	if len(cfg.KafkaBrokers) > 0 {
		k, err := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			slog.Error("kafka disabled", "brokers", strings.Join(cfg.KafkaBrokers, ","), "err", err)
		} else {
			publishers = append(publishers, k)
		}
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := events.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			slog.Error("telegram notifications disabled", "err", err)
		} else {
			publishers = append(publishers, tg)
		}
	}
	return publishers
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found; relying on existing environment")
	}
}

// fail logs err and hands it back so cobra exits non-zero.
func fail(err error) error {
	slog.Error(err.Error())
	return err
}
