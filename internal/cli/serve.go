package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/radialmap/internal/server"
	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/pipeline"
)

// serveCommand creates the serve command for the layout API server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		cfg        server.Config
		configPath string
		sessionTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout API server",
		Long: `Run the layout API server.

The server keeps one layout engine per session and exposes the full command
surface over HTTP: tree updates, host-driven ticks, the drag protocol, ring
arrangement, focus mode and override management. Sessions are identified by
UUID and expire after the configured idle TTL.

Overrides persist to Redis when --redis-addr is given (in-memory otherwise),
and snapshots can be archived to MongoDB when --mongo-uri is given.
Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Layout = layout.DefaultConfig()
			if configPath != "" {
				loaded, err := layout.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg.Layout = loaded
			}
			cfg.SessionTTL = sessionTTL
			cfg.Logger = c.Logger

			srv, err := server.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer srv.Close()

			c.Logger.Info("starting server", "addr", cfg.Addr)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&cfg.Mode, "mode", pipeline.DefaultMode, "default collision strategy for new sessions")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", pipeline.DefaultSeed, "random seed for new sessions")
	cmd.Flags().StringVar(&configPath, "config", "", "layout tuning file (TOML)")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", 30*time.Minute, "idle time before a session is evicted")
	cmd.Flags().StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address for override persistence (e.g. localhost:6379)")
	cmd.Flags().StringVar(&cfg.RedisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().StringVar(&cfg.MongoURI, "mongo-uri", "", "MongoDB URI for snapshot archiving")
	cmd.Flags().StringVar(&cfg.MongoDatabase, "mongo-db", "radialmap", "MongoDB database name")

	return cmd
}
