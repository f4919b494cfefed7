package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	logLevel   = flag.String("log", "info", "log level (trace, debug, info, warn, error, disabled)")
	dbDir      = flag.String("db", "", "database directory (default: user data dir)")
	noStore    = flag.Bool("nostore", false, "run without persistent storage")
	hashMB     = flag.Int("hash", 0, "transposition table size in MB (overrides saved preference)")
	maxDepth   = flag.Int("depth", 0, "maximum search depth (overrides saved preference)")
	moveTime   = flag.Duration("movetime", 0, "search time when no clock is given (overrides saved preference)")
	exportPath = flag.String("export", "", "write stored analyses to a zstd file and exit")
	importPath = flag.String("import", "", "load analyses from a zstd file and exit")
)

func main() {
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad -log value: %v\n", err)
		os.Exit(2)
	}
	// stdout carries the protocol.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu-profiling-enabled")
	}

	if err := run(log); err != nil {
		log.Error().Err(err).Msg("exiting")
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run(log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := engine.DefaultConfig()
	cfg.Logger = log

	var store *storage.Store
	if !*noStore {
		var err error
		store, err = storage.Open(storage.Options{Dir: *dbDir, Logger: log})
		if err != nil {
			return err
		}
		defer store.Close()

		prefs, err := store.LoadPreferences()
		if err != nil {
			log.Warn().Err(err).Msg("using-default-preferences")
		}
		cfg = prefs.Apply(cfg)
	}

	switch {
	case *exportPath != "":
		return exportAnalyses(store, *exportPath, log)
	case *importPath != "":
		return importAnalyses(store, *importPath, log)
	}

	if *hashMB > 0 {
		cfg.HashMB = *hashMB
	}
	if *maxDepth > 0 {
		cfg.MaxDepth = *maxDepth
	}
	if *moveTime > 0 {
		cfg.MoveTime = *moveTime
	}

	eng := engine.New(cfg)
	protocol := uci.New(eng, store, os.Stdout, log)
	return protocol.Run(ctx, os.Stdin)
}

func exportAnalyses(store *storage.Store, path string, log zerolog.Logger) error {
	if store == nil {
		return errors.New("export needs storage")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	n, err := store.Export(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info().Int("analyses", n).Str("path", path).Msg("analyses-exported")
	return nil
}

func importAnalyses(store *storage.Store, path string, log zerolog.Logger) error {
	if store == nil {
		return errors.New("import needs storage")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	n, err := store.Import(f)
	if err != nil {
		return err
	}
	log.Info().Int("analyses", n).Str("path", path).Msg("analyses-imported")
	return nil
}
