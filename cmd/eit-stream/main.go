// Command eit-stream runs the EIT streaming engine against a
// configuration file. Grounded on original_source/src/main.rs's
// flag handling (-v/--version, -h/--help, CONFIG positional arg),
// rewritten against spf13/cobra the way the rest of the example pack's
// CLIs are built.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cesbo/eit-stream/internal/clock"
	"github.com/cesbo/eit-stream/internal/config"
	"github.com/cesbo/eit-stream/internal/engine"
	"github.com/cesbo/eit-stream/internal/epg"
	"github.com/cesbo/eit-stream/internal/sink"
	"github.com/cesbo/eit-stream/internal/version"
)

func main() {
	var printSchema bool
	var cpuProfile bool

	root := &cobra.Command{
		Use:     "eit-stream CONFIG",
		Short:   "Stream a DVB EIT electronic program guide onto a transport stream",
		Version: version.String(),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if printSchema {
				fmt.Print(config.SchemaHelp())
				return nil
			}
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			if cpuProfile {
				defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
			}
			return run(args[0])
		},
	}
	root.Flags().BoolVarP(&printSchema, "schema", "H", false, "print the configuration schema and exit")
	root.Flags().BoolVar(&cpuProfile, "profile", false, "enable CPU profiling for the process lifetime")
	root.SetVersionTemplate(version.String() + "\n")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	config.SetWarningFunc(func(msg string) { logger.Warn(msg) })
	engine.Warnf = func(format string, args ...interface{}) {
		logger.Sugar().Warnf(format, args...)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := loadEPG(cfg)
	if err != nil {
		return fmt.Errorf("loading epg: %w", err)
	}

	out, err := sink.Open(cfg.Output)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer out.Close()

	e := engine.New(cfg, store, out, clock.System{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return e.Run(ctx)
}

func loadEPG(cfg *config.Config) (*epg.Store, error) {
	loader := &epg.XMLTVLoader{}

	store := epg.NewStore()
	sources := map[string]bool{}
	for _, mux := range cfg.Multiplex {
		src := mux.XMLTV
		if src == "" {
			src = cfg.XMLTV
		}
		for _, svc := range mux.Services {
			s := svc.XMLTV
			if s == "" {
				s = src
			}
			sources[s] = true
		}
	}
	if len(sources) == 0 {
		sources[cfg.XMLTV] = true
	}

	for src := range sources {
		if src == "" {
			continue
		}
		loaded, err := loader.Load(src)
		if err != nil {
			return nil, err
		}
		mergeInto(store, loaded)
	}

	return store, nil
}

func mergeInto(dst, src *epg.Store) {
	for _, ch := range src.Channels() {
		dst.Add(ch.XMLTVID, ch.Events)
	}
}
