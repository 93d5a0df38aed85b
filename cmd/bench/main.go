// Command bench compiles an algorithm file, benchmarks it over a batch of
// seeded games, prints the aggregate statistics, and can record a replay of
// the first game or submit the result to a leaderboard server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/atlascodesai/snake-ai-arena/internal/authstore"
	"github.com/atlascodesai/snake-ai-arena/internal/bench"
	"github.com/atlascodesai/snake-ai-arena/internal/config"
	"github.com/atlascodesai/snake-ai-arena/internal/playback"
	"github.com/atlascodesai/snake-ai-arena/internal/replay"
	"github.com/atlascodesai/snake-ai-arena/internal/sandbox"
	"github.com/atlascodesai/snake-ai-arena/internal/sim"
	"github.com/atlascodesai/snake-ai-arena/internal/submit"
)

func main() {
	var (
		algoPath   = flag.String("algo", "", "path to algorithm source (default: built-in greedy)")
		configPath = flag.String("config", "", "path to YAML config file")
		numGames   = flag.Int("games", 0, "number of games (overrides config)")
		startSeed  = flag.Int64("seed", 0, "starting seed (overrides config)")
		workers    = flag.Int("workers", 0, "parallel workers, 0 = GOMAXPROCS")
		replayPath = flag.String("replay", "", "record the first game's replay to this file")
		serverURL  = flag.String("submit", "", "leaderboard server URL to submit the result to")
		name       = flag.String("name", "", "submission name (required with -submit)")
		setToken   = flag.String("set-token", "", "store a submission token and exit")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[BENCH] ", log.LstdFlags)

	auth := authstore.New("snake-ai-arena", defaultTokenFallback())
	if *setToken != "" {
		if err := auth.SetToken(*setToken); err != nil {
			logger.Fatalf("storing token: %v", err)
		}
		fmt.Println("token stored")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}
	if *numGames > 0 {
		cfg.Benchmark.NumGames = *numGames
	}
	if *startSeed > 0 {
		cfg.Benchmark.StartSeed = *startSeed
	}

	source := sandbox.ExampleGreedy
	if *algoPath != "" {
		data, err := os.ReadFile(*algoPath)
		if err != nil {
			logger.Fatalf("reading algorithm: %v", err)
		}
		source = string(data)
	}

	// Fail fast on bad source before spinning up workers.
	if _, err := sandbox.Compile(source); err != nil {
		logger.Fatalf("%v", err)
	}

	if *replayPath != "" {
		if err := recordReplay(source, cfg, *replayPath); err != nil {
			logger.Fatalf("recording replay: %v", err)
		}
		logger.Printf("replay written to %s", *replayPath)
	}

	runner := bench.NewRunner(cfg.Benchmark.MaxFrames)
	factory := func() (sim.DecisionFunc, error) { return sandbox.Compile(source) }
	result, err := runner.RunParallel(context.Background(), factory,
		cfg.Benchmark.NumGames, cfg.Benchmark.StartSeed, *workers,
		func(completed, total int) {
			fmt.Fprintf(os.Stderr, "\rgames: %d/%d", completed, total)
		})
	if err != nil {
		fmt.Fprintln(os.Stderr)
		logger.Fatalf("benchmark: %v", err)
	}
	fmt.Fprintln(os.Stderr)

	fmt.Printf("games:         %d\n", result.GamesPlayed)
	fmt.Printf("avg score:     %.2f\n", result.AvgScore)
	fmt.Printf("max score:     %d\n", result.MaxScore)
	fmt.Printf("min score:     %d\n", result.MinScore)
	fmt.Printf("survival rate: %.1f%%\n", result.SurvivalRate)
	for reason, n := range result.Reasons {
		fmt.Printf("  %-22s %d\n", reason, n)
	}

	if *serverURL != "" {
		if *name == "" {
			logger.Fatalf("-name is required with -submit")
		}
		token, err := auth.GetToken()
		if err != nil && err != authstore.ErrNotFound {
			logger.Fatalf("reading token: %v", err)
		}
		client := submit.NewClient(*serverURL, token)
		entry, err := client.CreateSubmission(context.Background(), submit.Request{
			Name:       *name,
			SourceCode: source,
			NumGames:   cfg.Benchmark.NumGames,
			StartSeed:  cfg.Benchmark.StartSeed,
		})
		if err != nil {
			logger.Fatalf("submitting: %v", err)
		}
		fmt.Printf("submitted as %s (id %s, server avg %.2f)\n", entry.Name, entry.ID, entry.AvgScore)
	}
}

// recordReplay plays one game with the batch's first seed and writes every
// tick to a compressed replay file.
func recordReplay(source string, cfg config.Config, path string) error {
	decide, err := sandbox.Compile(source)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rec, err := replay.NewRecorder(f)
	if err != nil {
		return err
	}

	simulation := sim.New(decide, cfg.Benchmark.StartSeed, cfg.Benchmark.MaxFrames)
	controller := playback.New(simulation, func(snap sim.Snapshot) {
		if err := rec.Record(snap); err != nil {
			// Recording failures should not kill the game; surface on Close.
			return
		}
	})
	controller.FastForward(context.Background(), 0)

	if err := rec.Close(); err != nil {
		return err
	}
	return nil
}

func defaultTokenFallback() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".snake-ai-arena", "credentials.json")
}
