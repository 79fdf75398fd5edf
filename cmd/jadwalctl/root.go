package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/jadwal-api/internal/config"
	"github.com/noah-isme/jadwal-api/internal/database"
	"github.com/noah-isme/jadwal-api/internal/repository"
	"github.com/noah-isme/jadwal-api/internal/service"
)

var (
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "jadwalctl",
	Short: "Operator tooling for the class action log",
	Long: `jadwalctl inspects the per-class action log and undoes entries
directly against the database, for when the HTTP API is unavailable.
Connection settings are read from JADWAL_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log service activity to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// backend is the storage wiring shared by the commands. Appends made here invalidate the API's
// history cache and reach the live feed, the same as appends made by the server.
type backend struct {
	db       *gorm.DB
	cache    *redis.Client
	nats     *nats.Conn
	logs     service.ActionLogService
	rollback service.RollbackService
}

func openBackend(ctx context.Context) (*backend, error) {
	cfg, err := config.LoadStorage()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(io.Discard)
	if verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	b := &backend{db: db}
	if cfg.RedisURL != "" {
		if b.cache, err = database.ConnectRedis(ctx, cfg.RedisURL, 5*time.Second); err != nil {
			return nil, err
		}
	}
	if cfg.NATSURL != "" {
		if b.nats, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName+" jadwalctl", logger); err != nil {
			b.Close()
			return nil, err
		}
	}

	documents := repository.NewDocumentRepository(db)
	actionLogs := repository.NewActionLogRepository(db)
	feed := service.NewHistoryFeed(b.nats, cfg.NATSSubject, logger)
	b.logs = service.NewActionLogService(actionLogs, b.cache, cfg.HistoryCacheTTL, logger, feed)
	b.rollback = service.NewRollbackService(actionLogs, documents, b.logs, logger)
	return b, nil
}

// Close flushes pending feed messages and releases the cache client.
func (b *backend) Close() {
	if b.nats != nil {
		_ = b.nats.Drain()
	}
	if b.cache != nil {
		_ = b.cache.Close()
	}
}

func requireFlag(cmd *cobra.Command, name string) (string, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return "", fmt.Errorf("--%s is required", name)
	}
	return value, nil
}
