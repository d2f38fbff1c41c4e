package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/dbehnke/digimodes/internal/config"
)

const VERSION = "1.0.0"

var (
	HEADER1 = "Streaming decoders for CHU time code, D-STAR and Varicode."
	HEADER2 = "Input is a hard-decision bit stream from a demodulator."
)

// flagKey maps a command line flag onto the config entry it overrides.
type flagKey struct {
	section string
	key     string
}

var flagKeys = map[string]flagKey{
	"mode":             {"General", "Mode"},
	"input":            {"General", "Input"},
	"output":           {"General", "Output"},
	"input-format":     {"General", "InputFormat"},
	"output-format":    {"General", "OutputFormat"},
	"buffer-size":      {"General", "BufferSize"},
	"golay":            {"D-Star", "GolayCorrection"},
	"audio-file":       {"D-Star", "AudioFile"},
	"log-level":        {"Log", "Level"},
	"record-format":    {"Log", "Format"},
	"timestamp-format": {"Log", "TimestampFormat"},
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("digimodes", pflag.ContinueOnError)
	fs.StringP("config", "c", getDefaultConfig(), "Configuration file path")
	fs.StringP("mode", "m", config.MODE_DSTAR, "Decoder: chu, dstar, varicode-rx or varicode-tx")
	fs.StringP("input", "i", "-", "Input: file, - for stdin, or udp://[host]:port to listen")
	fs.StringP("output", "o", "-", "Output: file, - for stdout, or udp://host:port to send")
	fs.String("input-format", "", "Input samples: binary, ascii or raw")
	fs.String("output-format", "", "Output samples: binary, ascii or raw")
	fs.Int("buffer-size", 0, "Input window in samples, 0 sizes it from the decoder")
	fs.Bool("golay", false, "Correct D-STAR voice codewords with Golay (24,12)")
	fs.String("audio-file", "", "Write D-STAR voice frames to this file, empty disables")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.StringP("record-format", "f", "text", "Record format: text, yaml or json")
	fs.StringP("timestamp-format", "T", "", "Precede text records with a strftime time stamp")
	fs.Bool("stats", false, "Print what the database holds and exit")
	fs.String("callsign", "", "With --stats, list transmissions from callsigns starting with this")
	fs.Duration("prune-chu", 0, "With --stats, first delete CHU frames older than this")
	fs.Bool("version", false, "Show version information")
	fs.BoolP("help", "h", false, "Display help text")
	return fs
}

// applyFlags copies every flag given on the command line into cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *pflag.Flag) {
		if k, ok := flagKeys[f.Name]; ok {
			cfg.Set(k.section, k.key, f.Value.String())
		}
	})
}

// loadConfig reads the config file, tolerating a missing default file, and
// applies command line overrides on top.
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	path, _ := fs.GetString("config")
	cfg := config.NewConfig(path)

	if _, err := os.Stat(path); err == nil || fs.Changed("config") {
		if err := cfg.Load(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	applyFlags(fs, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "digimodes",
	})
	level, err := log.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		logger.Warn("unknown log level, using info", "level", cfg.GetLogLevel())
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func main() {
	fs := newFlagSet()
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - %s\n", os.Args[0], HEADER1)
		fmt.Fprintf(os.Stderr, "%s\n\n", HEADER2)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if help, _ := fs.GetBool("help"); help {
		fs.Usage()
		os.Exit(0)
	}
	if version, _ := fs.GetBool("version"); version {
		fmt.Printf("digimodes v%s\n", VERSION)
		fmt.Println(HEADER1)
		fmt.Println(HEADER2)
		return
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		log.Fatal("startup failed", "err", err)
	}
	logger := newLogger(cfg)

	if stats, _ := fs.GetBool("stats"); stats {
		callsign, _ := fs.GetString("callsign")
		prune, _ := fs.GetDuration("prune-chu")
		if err := runStats(os.Stdout, cfg, logger, statsOptions{Callsign: callsign, PruneCHU: prune}); err != nil {
			logger.Fatal("stats failed", "err", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", "err", err)
	}

	logger.Info("digimodes starting", "version", VERSION, "mode", cfg.GetMode(),
		"input", cfg.GetInput(), "output", cfg.GetOutput())

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		logger.Error("shutdown", "err", err)
	}
	if runErr != nil {
		logger.Error("decoder stopped", "err", runErr)
		stop()
		os.Exit(1)
	}
	logger.Info("digimodes stopped")
}

// getDefaultConfig returns the default configuration file path
func getDefaultConfig() string {
	if _, err := os.Stat("digimodes.ini"); err == nil {
		return "digimodes.ini"
	}

	systemConfig := "/etc/digimodes.ini"
	if _, err := os.Stat(systemConfig); err == nil {
		return systemConfig
	}

	return "digimodes.ini"
}
