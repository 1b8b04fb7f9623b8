// Package main provides the CLI entry point for av1still.
package main

import (
	"context"
	"errors"
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/av1still/pkg/adapters/libaom"
	"github.com/user/av1still/pkg/adapters/logger"
	"github.com/user/av1still/pkg/config"
	"github.com/user/av1still/pkg/ports"
)

var version = "dev"

// Flag categories
var (
	categoryOutput   = l10n.T("Output")
	categoryEncoding = l10n.T("Encoding")
	categoryPreset   = l10n.T("Preset")
	categoryLogging  = l10n.T("Logging")
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	if err := newApp(os.Stdin, os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:    "av1still",
		Usage:   l10n.T("Encode still images as AV1 bitstreams"),
		Version: fmt.Sprintf("%s (libaom %s)", version, libaom.Version()),
		Reader:  stdin,
		Writer:  stdout,

		ErrWriter: stderr,
		Commands: []*cli.Command{
			encodeCommand(),
			batchCommand(),
			patternCommand(),
			infoCommand(),
		},
	}
}

// encodingFlags are shared by every command that encodes.
func encodingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: l10n.T("YAML configuration file"), Category: categoryEncoding},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("Compression level (0-63, 0 is lossless)"), Category: categoryEncoding},
		&cli.IntFlag{Name: "speed", Aliases: []string{"s"}, Usage: l10n.T("Compression speed (0-8, higher is faster)"), Category: categoryEncoding},
		&cli.IntFlag{Name: "threads", Aliases: []string{"t"}, Usage: l10n.T("Number of threads (0-64, 0 for all cores)"), Category: categoryEncoding},
		&cli.StringFlag{Name: "thumb", Aliases: []string{"b"}, Usage: l10n.T("Maximum image dimensions (w:h)"), Category: categoryEncoding},
		&cli.BoolFlag{Name: "lossless", Usage: l10n.T("Lossless compression (alias for -q 0)"), Category: categoryPreset},
		&cli.BoolFlag{Name: "best", Usage: l10n.T("Slowest compression method (alias for -s 0)"), Category: categoryPreset},
		&cli.BoolFlag{Name: "fast", Usage: l10n.T("Fastest compression method (alias for -s 8)"), Category: categoryPreset},
		&cli.BoolFlag{Name: "verify", Usage: l10n.T("Decode the result and check its dimensions"), Category: categoryOutput},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: categoryLogging},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: categoryLogging},
	}
}

// buildConfig layers the config file, explicit flags and presets, in that
// order, and validates the result.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("speed") {
		cfg.Speed = c.Int("speed")
	}
	if c.IsSet("threads") {
		cfg.Threads = c.Int("threads")
	}
	if c.IsSet("thumb") {
		cfg.Thumb = c.String("thumb")
	}
	if c.IsSet("verify") {
		cfg.Verify = c.Bool("verify")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("jobs") {
		cfg.Jobs = c.Int("jobs")
	}

	if c.Bool("best") && c.Bool("fast") {
		return cfg, errors.New(l10n.T("can't use both --best and --fast"))
	}
	presets := []struct {
		flag, name string
	}{
		{"lossless", config.PresetLossless},
		{"best", config.PresetBest},
		{"fast", config.PresetFast},
	}
	for _, p := range presets {
		if c.Bool(p.flag) {
			if err := cfg.ApplyPreset(p.name); err != nil {
				return cfg, err
			}
		}
	}

	return cfg, cfg.Validate()
}

// newLogger creates the logger selected by the flags and config.
func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	// buildConfig has already rejected unknown levels through Validate.
	level, _ := ports.ParseLogLevel(cfg.LogLevel)
	if level >= ports.LevelQuiet {
		return logger.NewNoop()
	}
	if c.App.ErrWriter == os.Stderr {
		return logger.NewConsole(level)
	}
	return logger.NewWriter(level, c.App.ErrWriter, c.App.ErrWriter)
}
