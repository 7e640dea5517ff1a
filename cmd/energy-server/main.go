package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/energy-server/energy-server/internal/api"
	"github.com/energy-server/energy-server/internal/config"
	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/server"
	"github.com/energy-server/energy-server/internal/service"
	"github.com/energy-server/energy-server/internal/storage"
	"github.com/energy-server/energy-server/pkg/crypto"
)

func main() {
	// Command line flags
	var configFile string
	flag.StringVar(&configFile, "config", "config/energy-server.yml", "Configuration file path")
	flag.Parse()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Connect to database
	store, err := storage.NewPostgresStore(cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	log.Info().Msg("Connected to database")

	// Apply schema
	if err := store.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	// Bootstrap admin account
	if err := bootstrapAdmin(context.Background(), store, &cfg.Admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	}

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start REST API server
	apiServer := api.NewRESTServer(cfg, store)

	// WaitGroup for services
	var wg sync.WaitGroup

	// Start API server
	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		if err := apiServer.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("REST API server failed")
		}
	}()

	// Optional: Start NATS subscriber for meter readings
	if cfg.NATS.URL != "" {
		log.Info().Str("url", cfg.NATS.URL).Msg("Connecting to NATS...")

		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.Server.Name),
			nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password),
			nats.ReconnectWait(cfg.NATS.ReconnectInterval),
			nats.MaxReconnects(cfg.NATS.MaxReconnects),
			nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
				log.Warn().Err(err).Msg("Disconnected from NATS")
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info().Msg("Reconnected to NATS")
			}),
			nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
				log.Error().
					Err(err).
					Str("subject", sub.Subject).
					Msg("NATS error")
			}),
		)

		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to NATS, continuing without meter ingest")
		} else {
			defer nc.Close()
			log.Info().Msg("Connected to NATS")

			subscriber := server.NewNATSSubscriber(nc, service.New(store))

			wg.Add(1)
			go func() {
				defer wg.Done()
				log.Info().Msg("Starting NATS subscriber")
				if err := subscriber.Start(ctx); err != nil {
					log.Error().Err(err).Msg("NATS subscriber stopped")
				}
			}()
		}
	} else {
		log.Info().Msg("NATS not configured, running without meter ingest")
	}

	// Wait for signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	// Cancel context
	cancel()

	// Shutdown API server
	if err := apiServer.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown API server gracefully")
	}

	// Wait for all services
	wg.Wait()

	log.Info().Msg("Energy server stopped")
}

// bootstrapAdmin creates the configured admin account on first start. An
// existing login is left untouched so password changes survive restarts.
func bootstrapAdmin(ctx context.Context, store storage.Store, cfg *config.AdminConfig) error {
	if cfg.Password == "" {
		log.Warn().Msg("No admin password configured, skipping admin bootstrap")
		return nil
	}

	_, err := store.GetUserByLogin(ctx, cfg.Login)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := crypto.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	user := &models.User{
		Login:        cfg.Login,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}

	log.Info().Str("login", cfg.Login).Msg("Bootstrapped admin account")
	return nil
}
