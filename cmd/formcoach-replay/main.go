package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/formcoach/internal/catalog"
	"github.com/claude/formcoach/internal/config"
	"github.com/claude/formcoach/internal/exercise"
	"github.com/claude/formcoach/internal/replay"
	"github.com/claude/formcoach/internal/session"
	"github.com/claude/formcoach/internal/storage"
)

func main() {
	exerciseName := flag.String("exercise", "", "exercise to replay (required)")
	inPath := flag.String("in", "-", "JSONL recording, - for stdin")
	userID := flag.String("user", "replay", "user ID for the workout")
	fps := flag.Float64("fps", 30, "frame rate of recordings without timestamps")
	thresholdsPath := flag.String("thresholds", "", "YAML file with threshold overrides")
	configPath := flag.String("config", "", "save the workout to the storage of this config")
	verbose := flag.Bool("v", false, "print every frame result")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exerciseName == "" {
		fmt.Fprintf(os.Stderr, "Usage: formcoach-replay -exercise Squat [-in recording.jsonl] [-thresholds th.yaml] [-config config.yaml]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	th := exercise.DefaultThresholds()
	if *thresholdsPath != "" {
		data, err := os.ReadFile(*thresholdsPath)
		if err != nil {
			log.Error("reading thresholds", "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &th); err != nil {
			log.Error("parsing thresholds", "error", err)
			os.Exit(1)
		}
		if err := th.Validate(); err != nil {
			log.Error("invalid thresholds", "error", err)
			os.Exit(1)
		}
	}

	var in io.Reader = os.Stdin
	if *inPath != "-" {
		f, err := os.Open(*inPath)
		if err != nil {
			log.Error("opening recording", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	ctx := context.Background()

	var (
		src   catalog.Source       = replay.StaticSource(storage.DefaultExercises)
		store session.WorkoutStore = replay.DryRunStore{WeightKg: 70}
	)
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		var db storage.Store
		if cfg.Storage.Driver == config.DriverPostgres {
			db, err = storage.New(ctx, cfg.Database.DSN(), cfg.Storage.DefaultBodyWeightKg)
		} else {
			db, err = storage.OpenLocal(cfg.Storage.SQLitePath, cfg.Storage.DefaultBodyWeightKg)
		}
		if err != nil {
			log.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		src, store = db, db
		log.Info("workout will be saved", "storage", cfg.Storage.Driver)
	}

	opts := replay.Options{
		Exercise:   *exerciseName,
		UserID:     *userID,
		Thresholds: th,
		FPS:        *fps,
	}
	if *verbose {
		opts.OnResult = func(i int, res exercise.Result) {
			fmt.Printf("%6d  reps=%-3d stage=%-5s score=%-3d %s\n", i, res.RepCount, res.Stage, res.Score, res.Feedback)
		}
	}

	start := time.Now()
	rp := replay.New(catalog.New(src, 1, time.Minute, log), store, log)
	stats, err := rp.Run(ctx, in, opts)
	if err != nil {
		log.Error("replay failed", "error", err)
		os.Exit(1)
	}

	log.Info("replay complete",
		"frames", stats.Frames,
		"incomplete", stats.Incomplete,
		"skipped", stats.Skipped,
		"transitions", stats.Transitions,
		"rep_frames", stats.RepFrames,
		"elapsed", time.Since(start).String(),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats.Summary); err != nil {
		log.Error("writing summary", "error", err)
		os.Exit(1)
	}
}
