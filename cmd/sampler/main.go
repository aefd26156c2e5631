// Command sampler runs the real-time multi-core performance counter
// sampling engine for a fixed duration, writing one binary sample file per
// target core.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/aclements/corecounter/internal/coreset"
	"github.com/aclements/corecounter/internal/engine"
)

func main() {
	var (
		flagCorePin     = flag.Int("core-to-pin", -1, "logical CPU `id` the sampler thread runs on")
		flagTargetCores = flag.String("target-cores", "", "comma-separated `list` of logical CPU ids to sample")
		flagDuration    = flag.Int("duration", 0, "sampling duration in `seconds`")
		flagDataDir     = flag.String("data-dir", "", "`directory` for per-core output files")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if *flagCorePin < 0 {
		logger.Fatal("--core-to-pin is required")
	}
	if *flagTargetCores == "" {
		logger.Fatal("--target-cores is required")
	}
	if *flagDuration <= 0 {
		logger.Fatal("--duration must be > 0")
	}
	if *flagDataDir == "" {
		logger.Fatal("--data-dir is required")
	}

	targets, err := coreset.Parse(*flagTargetCores)
	if err != nil {
		logger.Fatalf("invalid --target-cores: %v", err)
	}

	e, err := engine.New(engine.Config{
		CorePin:     *flagCorePin,
		TargetCores: targets,
		Duration:    time.Duration(*flagDuration) * time.Second,
		DataDir:     *flagDataDir,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal(err)
	}

	logger.Printf("pid %d: pinned to core %d, sampling cores %v for %ds into %s", os.Getpid(), *flagCorePin, []int(targets), *flagDuration, *flagDataDir)

	summaries, err := e.Run()
	if err != nil {
		logger.Fatal(err)
	}

	var total uint64
	for _, s := range summaries {
		logger.Printf("core %d: %d samples, %.1f samples/sec average", s.CoreID, s.SampleCount, s.AverageRate)
		total += s.SampleCount
	}
	logger.Printf("profiling completed, %d samples", total)
}
