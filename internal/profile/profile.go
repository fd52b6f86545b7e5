package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration shared by every notegraph command.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the HTTP server
	Addr string
	// Port is the binding port for the HTTP server
	Port int
	// Data is the data directory
	Data string
	// DSN points to the note database
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of notegraph
	Version string
	// CreatorID is the principal whose notes are graphed.
	CreatorID int32

	// Layout tuning
	TickInterval time.Duration // NOTEGRAPH_TICK_INTERVAL (default: 16ms)
	SettleEnergy float64       // NOTEGRAPH_SETTLE_ENERGY (default: 0.05, 0 never settles)

	// Render tuning
	FPS             int     // NOTEGRAPH_FPS (default: 30)
	HideSharedTags  bool    // NOTEGRAPH_HIDE_SHARED_TAGS (default: false)
	LabelsAlways    bool    // NOTEGRAPH_LABELS_ALWAYS (default: false)
	SnapshotRPS     float64 // NOTEGRAPH_SNAPSHOT_RPS, per-client PNG snapshot rate (default: 2)
	SnapshotMaxTick int     // NOTEGRAPH_SNAPSHOT_MAX_TICKS (default: 2000)
}

const (
	defaultTickInterval    = 16 * time.Millisecond
	defaultSettleEnergy    = 0.05
	defaultFPS             = 30
	defaultSnapshotRPS     = 2
	defaultSnapshotMaxTick = 2000
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// FromEnv loads the tuning knobs from NOTEGRAPH_* environment variables.
// Unset or malformed values keep their defaults.
func (p *Profile) FromEnv() {
	p.TickInterval = getDurationEnv("NOTEGRAPH_TICK_INTERVAL", defaultTickInterval)
	p.SettleEnergy = getFloatEnv("NOTEGRAPH_SETTLE_ENERGY", defaultSettleEnergy)
	p.FPS = int(getFloatEnv("NOTEGRAPH_FPS", defaultFPS))
	p.HideSharedTags = os.Getenv("NOTEGRAPH_HIDE_SHARED_TAGS") == "true"
	p.LabelsAlways = os.Getenv("NOTEGRAPH_LABELS_ALWAYS") == "true"
	p.SnapshotRPS = getFloatEnv("NOTEGRAPH_SNAPSHOT_RPS", defaultSnapshotRPS)
	p.SnapshotMaxTick = int(getFloatEnv("NOTEGRAPH_SNAPSHOT_MAX_TICKS", defaultSnapshotMaxTick))
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid duration", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return d
}

func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		slog.Warn("ignoring invalid number", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return f
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate fills defaults and resolves the data directory and sqlite DSN.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.CreatorID <= 0 {
		p.CreatorID = 1
	}
	if p.TickInterval <= 0 {
		p.TickInterval = defaultTickInterval
	}
	if p.FPS <= 0 {
		p.FPS = defaultFPS
	}
	if p.SnapshotRPS <= 0 {
		p.SnapshotRPS = defaultSnapshotRPS
	}
	if p.SnapshotMaxTick <= 0 {
		p.SnapshotMaxTick = defaultSnapshotMaxTick
	}

	if p.Driver == "postgres" {
		if p.DSN == "" {
			return errors.New("dsn is required for postgres")
		}
		return nil
	}

	if p.Data == "" {
		switch {
		case p.Mode != "prod":
			p.Data = "."
		case runtime.GOOS == "windows":
			p.Data = filepath.Join(os.Getenv("ProgramData"), "notegraph")
		default:
			p.Data = "/var/opt/notegraph"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.DSN == "" {
		dbFile := fmt.Sprintf("notegraph_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	return nil
}
