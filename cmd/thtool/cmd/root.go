package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/bsm/teehistorian"
	"github.com/bsm/teehistorian/internal/config"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// app holds the state shared by all sub-commands.
type app struct {
	fs     afero.Fs
	cfg    *config.Config
	logger log.Logger
	reg    *teehistorian.Registry

	configPath string
	registers  []string
	logLevel   string
}

// NewRootCommand builds the command tree operating on fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs, logger: log.NewNopLogger()}

	rootCmd := &cobra.Command{
		Use:   "thtool",
		Short: "Inspect and rewrite teehistorian recordings",
		Long: `thtool decodes teehistorian recordings written by DDNet servers.
It can dump chunks, print headers, summarize recordings and
re-encode them with a different compression.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringArrayVarP(&a.registers, "register", "r", nil, "Register an extension handler as uuid=name (repeatable)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error or none (overrides config)")

	rootCmd.AddCommand(
		newDumpCmd(a),
		newHeaderCmd(a),
		newStatsCmd(a),
		newRewriteCmd(a),
	)
	return rootCmd
}

// Execute runs the root command on the OS filesystem.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.DefaultConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(a.fs, a.configPath); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	for _, s := range a.registers {
		id, name, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return errors.Errorf("invalid registration %q, want uuid=name", s)
		}
		if err := reg.Register(id, name); err != nil {
			return err
		}
	}
	a.reg = reg

	level.Debug(a.logger).Log("msg", "configured", "extensions", reg.Len(), "config", a.configPath)
	return nil
}

func (a *app) readerOptions() *teehistorian.ReaderOptions {
	return &teehistorian.ReaderOptions{
		Registry: a.reg,
		Logger:   log.With(a.logger, "component", "reader"),
	}
}

// open reads a recording and returns the reader and the plain size.
func (a *app) open(path string) (*teehistorian.Reader, int, error) {
	data, err := teehistorian.ReadFile(a.fs, path)
	if err != nil {
		return nil, 0, err
	}

	r, err := teehistorian.NewReader(data, a.readerOptions())
	if err != nil {
		return nil, 0, errors.Wrapf(err, "open %s", path)
	}
	return r, len(data), nil
}

func newLogger(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	case "none":
		opt = level.AllowNone()
	default:
		opt = level.AllowInfo()
	}
	return level.NewFilter(logger, opt)
}
