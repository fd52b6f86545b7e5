package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/server"
	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/db"
)

// version is set with -ldflags at build time.
var version = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:   "notegraph",
		Short: `A knowledge graph of your notes: wiki links and shared tags, laid out and explorable.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogger(cmd.ErrOrStderr(), viper.GetString("mode"))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8082)
	viper.SetDefault("creator", 1)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of notegraph, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8082, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver, sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().Int32("creator", 1, "id of the user whose notes are graphed")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "creator"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("notegraph")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, newViewCmd(), newRenderCmd(), newStatsCmd(), newSeedCmd())
}

func setupLogger(w io.Writer, mode string) {
	level := slog.LevelInfo
	if mode != "prod" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:      viper.GetString("mode"),
		Addr:      viper.GetString("addr"),
		Port:      viper.GetInt("port"),
		Data:      viper.GetString("data"),
		Driver:    viper.GetString("driver"),
		DSN:       viper.GetString("dsn"),
		CreatorID: viper.GetInt32("creator"),
		Version:   version,
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// openStore loads the profile, opens the database and migrates it.
func openStore(ctx context.Context) (*profile.Profile, *store.Store, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, nil, err
	}
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, nil, err
	}
	storeInstance := store.New(dbDriver, p)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return nil, nil, err
	}
	return p, storeInstance, nil
}

func serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p, storeInstance, err := openStore(ctx)
	if err != nil {
		slog.Error("failed to open store", slog.String("error", err.Error()))
		return err
	}

	s, err := server.NewServer(ctx, p, storeInstance)
	if err != nil {
		slog.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}

	c := make(chan os.Signal, 1)
	// Trigger graceful shutdown on SIGINT or SIGTERM.
	// The default signal sent by the `kill` command is SIGTERM,
	// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := s.Start(ctx); err != nil {
		slog.Error("failed to start server", slog.String("error", err.Error()))
		return err
	}

	printGreetings(p, s.Addr())

	go func() {
		<-c
		s.Shutdown(ctx)
		cancel()
	}()

	// Wait for CTRL-C.
	<-ctx.Done()
	return nil
}

func printGreetings(p *profile.Profile, addr string) {
	fmt.Printf("notegraph %s started successfully!\n", p.Version)
	if p.IsDev() {
		fmt.Fprintf(os.Stderr, "Development mode is enabled\n")
		if p.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", p.DSN)
		}
	}
	fmt.Printf("Data directory: %s\n", p.Data)
	fmt.Printf("Database driver: %s\n", p.Driver)
	fmt.Printf("Server running on http://%s\n", addr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
