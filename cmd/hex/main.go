package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hexsim/hexsim/config"
	"github.com/hexsim/hexsim/game"
	"github.com/hexsim/hexsim/parallel"
	"github.com/hexsim/hexsim/shell"
	"github.com/hexsim/hexsim/worker"
)

var (
	GitVersion string
)

const (
	GracefulShutdownTimeout = 20 * time.Second
)

//go:embed hex.txt
var hexbanner string

func setupLogging(debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	var logger zerolog.Logger
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	return logger
}

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == worker.WorkerArg {
		os.Exit(runWorker())
	}

	cfg := &config.Config{}
	if err := cfg.Load(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := setupLogging(cfg.GetBool(config.ConfigDebug))
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("bad-config")
		os.Exit(2)
	}
	logger.Debug().Interface("settings", cfg.SanitizedSettings()).Msg("loaded-config")

	fmt.Println(hexbanner)
	if GitVersion != "" {
		fmt.Println(GitVersion)
	}

	if err := run(logger.WithContext(context.Background()), cfg); err != nil {
		logger.Error().Err(err).Msg("hex-failed")
		os.Exit(1)
	}
}

// runWorker serves one orchestrator on stdin/stdout until it says stop.
func runWorker() int {
	logger := setupLogging(os.Getenv(envDebug) == "true")
	// A terminal Ctrl-C reaches the whole process group; the parent decides
	// when workers stop.
	signal.Ignore(syscall.SIGINT)
	if err := worker.Main(logger.WithContext(context.Background())); err != nil {
		logger.Error().Err(err).Msg("worker-failed")
		return 1
	}
	return 0
}

const envDebug = "HEX_DEBUG"

func run(ctx context.Context, cfg *config.Config) error {
	logger := zerolog.Ctx(ctx)
	human, err := cfg.HumanSide()
	if err != nil {
		return err
	}

	if path := cfg.GetString(config.ConfigCPUProfile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	sc, err := shell.NewShellController()
	if err != nil {
		return err
	}
	defer sc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			logger.Info().Msg("got quit signal...")
			cancel()
			// Unblocks a pending prompt.
			sc.Close()
		case <-ctx.Done():
		}
	}()

	settings := shell.Settings{
		Size:        cfg.GetInt(config.ConfigBoardSize),
		Simulations: cfg.GetInt(config.ConfigSimulations),
		Workers:     cfg.GetInt(config.ConfigWorkers),
	}
	if cfg.GetBool(config.ConfigInteractiveSetup) {
		settings, err = sc.Setup(ctx, settings)
		if err != nil {
			return quietQuit(err)
		}
	}

	ev := parallel.NewEvaluator(startPool(ctx, cfg, settings.Workers), nil)
	defer func() {
		sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), GracefulShutdownTimeout)
		defer scancel()
		if err := ev.Close(sctx); err != nil {
			logger.Warn().Err(err).Msg("worker-shutdown-errors")
		}
	}()

	if path := cfg.GetString(config.ConfigRoundLog); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening round log: %w", err)
		}
		defer f.Close()
		ev.SetRoundLog(f)
	}

	g, err := game.New(settings.Size, human, settings.Simulations, ev)
	if err != nil {
		return err
	}
	sc.SetGame(g, ev)

	winner, err := g.Run(ctx, sc)
	if err != nil {
		return quietQuit(err)
	}
	logger.Info().Str("winner", winner.String()).Int("turns", g.Turn()).
		Float64("mean-round-secs", ev.Timing().Mean()).Msg("game-over")
	return nil
}

// startPool returns nil when no worker could be started; the game then
// evaluates in this process.
func startPool(ctx context.Context, cfg *config.Config, n int) *worker.Pool {
	var sp worker.Spawner
	switch {
	case cfg.GetBool(config.ConfigLocalWorkers):
		sp = &worker.LocalSpawner{}
	case cfg.GetBool(config.ConfigDebug):
		sp = &worker.ProcessSpawner{Env: []string{envDebug + "=true"}}
	default:
		sp = &worker.ProcessSpawner{}
	}
	pool, err := worker.NewPool(ctx, sp, n)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("no-worker-pool-evaluating-in-process")
		return nil
	}
	return pool
}

// quietQuit treats leaving the game as a normal end.
func quietQuit(err error) error {
	if errors.Is(err, game.ErrQuit) || errors.Is(err, game.ErrBoardFull) ||
		errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
