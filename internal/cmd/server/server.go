// Package server parses game server flags and launches the service.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	entrypoint "github.com/dotgrid/dotgrid/internal/platform/cmd"
	gameserver "github.com/dotgrid/dotgrid/internal/server"
	"github.com/dotgrid/dotgrid/internal/storage/sqlite"
)

// Config holds game server command configuration.
type Config struct {
	TCPPort int    `env:"DOTGRID_TCP_PORT" envDefault:"50000"`
	WSPort  int    `env:"DOTGRID_WS_PORT" envDefault:"8080"`
	DBPath  string `env:"DOTGRID_DB_PATH"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.TCPPort, "tcp-port", cfg.TCPPort, "The game server TCP port")
	fs.IntVar(&cfg.WSPort, "ws-port", cfg.WSPort, "The game server WebSocket port, 0 disables")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the match archive database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "matches.db")
	}
	return cfg, nil
}

// Run starts the game server service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open match store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("event=store_close_failed err=%q", err)
			}
		}()

		serverCfg := gameserver.Config{
			TCPAddr: fmt.Sprintf(":%d", cfg.TCPPort),
			Store:   store,
		}
		if cfg.WSPort > 0 {
			serverCfg.WSAddr = fmt.Sprintf(":%d", cfg.WSPort)
		}
		srv, err := gameserver.New(serverCfg)
		if err != nil {
			return err
		}
		log.Printf("event=server_listening tcp=%s ws=%s", serverCfg.TCPAddr, serverCfg.WSAddr)
		return srv.Serve(ctx)
	})
}
