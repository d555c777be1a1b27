package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/foundation/normalization"
	"git.home.luguber.info/inful/metasync/internal/project"
	"git.home.luguber.info/inful/metasync/internal/storage"
)

// DefaultEnvFile is loaded before flag parsing when present.
const DefaultEnvFile = ".env"

// Global carries process-wide collaborators into every command.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Root      string           `short:"C" help:"Project root directory" default:"." env:"METASYNC_ROOT"`
	Manifest  string           `short:"m" help:"Manifest path, relative to the root" default:"pyproject.toml" env:"METASYNC_MANIFEST"`
	BackupDir string           `help:"Backup directory, relative to the root" default:".metasync/backups" env:"METASYNC_BACKUP_DIR"`
	Verbose   bool             `short:"v" help:"Enable verbose logging" env:"METASYNC_VERBOSE"`
	LogFormat string           `help:"Log format (text or json)" default:"text" env:"METASYNC_LOG_FORMAT"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Sync    SyncCmd    `cmd:"" default:"1" help:"Sync all registered targets with the manifest"`
	Fix     FixCmd     `cmd:"" help:"Sync a single target"`
	Check   CheckCmd   `cmd:"" help:"Report targets that are out of sync without changing them"`
	Restore RestoreCmd `cmd:"" help:"Restore target files from a backup run"`
	Prune   PruneCmd   `cmd:"" help:"Delete old backup runs"`
	Watch   WatchCmd   `cmd:"" help:"Re-sync whenever the manifest changes"`

	logger *slog.Logger
}

type logFormat string

const (
	logFormatText logFormat = "text"
	logFormatJSON logFormat = "json"
)

var logFormats = normalization.NewNormalizer(map[string]logFormat{
	"text":   logFormatText,
	"logfmt": logFormatText,
	"json":   logFormatJSON,
}, logFormatText)

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	format, err := logFormats.NormalizeWithError(c.LogFormat)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid log format").
			WithContext("flag", "--log-format").
			Build()
	}
	c.logger = newLogger(os.Stderr, format, c.Verbose)
	slog.SetDefault(c.logger)
	return nil
}

// newLogger builds the process logger.
func newLogger(w io.Writer, format logFormat, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == logFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Logger returns the configured logger, or a discarding one before AfterApply.
func (c *CLI) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// ManifestPath resolves the manifest flag against the root.
func (c *CLI) ManifestPath() string {
	if filepath.IsAbs(c.Manifest) {
		return c.Manifest
	}
	return filepath.Join(c.Root, c.Manifest)
}

// LoadContext reads the manifest into a fresh snapshot.
func (c *CLI) LoadContext(g *Global, dryRun bool) (*project.Context, error) {
	return project.Load(project.Options{
		Root:         c.Root,
		ManifestPath: c.Manifest,
		DryRun:       dryRun,
		BackupDir:    c.BackupDir,
		Logger:       g.Logger,
	})
}

// OpenStore opens the backup store without reading the manifest.
func (c *CLI) OpenStore() (*storage.FSStore, error) {
	return storage.NewFSStore(c.Root, c.BackupDir)
}

// LoadEnv loads variables from an env file if it exists. Variables already set
// in the environment win.
func LoadEnv(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to load env file").
			WithContext("path", path).
			Build()
	}
	return nil
}

// relPath renders path relative to root for display.
func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
