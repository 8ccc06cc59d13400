// ephemeron drives the weak collection runtime: it builds WeakSets and
// WeakMaps, drops most of their keys, collects, and reports what survived.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/ephemeron/config"
	"github.com/chazu/ephemeron/journal"
	"github.com/chazu/ephemeron/vm"
)

var log = commonlog.GetLogger("ephemeron")

func main() {
	configDir := flag.String("config", "", "Directory containing ephemeron.toml (default: search upward from cwd)")
	verbose := flag.Int("v", -1, "Log verbosity (overrides config)")
	collections := flag.Int("n", 0, "Number of WeakSet/WeakMap pairs to build")
	elements := flag.Int("elements", 0, "Keys per collection")
	retainEvery := flag.Int("retain-every", 0, "Keep every Nth key rooted")
	snapshotPath := flag.String("snapshot", "", "Write a CBOR heap snapshot to this file")
	journalPath := flag.String("journal", "", "Record collector cycles in this SQLite database")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ephemeron [options]\n\n")
		fmt.Fprintf(os.Stderr, "Builds weak collections, collects, and verifies that only rooted keys survive.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ephemeron -n 4 -elements 1000            # Small run\n")
		fmt.Fprintf(os.Stderr, "  ephemeron -journal gc.db -snapshot h.cbor # Keep artifacts\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the file.
	if *verbose >= 0 {
		cfg.Log.Verbosity = *verbose
	}
	if *collections > 0 {
		cfg.Workload.Collections = *collections
	}
	if *elements > 0 {
		cfg.Workload.Elements = *elements
	}
	if *retainEvery > 0 {
		cfg.Workload.RetainEvery = *retainEvery
	}
	if *snapshotPath != "" {
		cfg.Output.Snapshot = *snapshotPath
	}
	if *journalPath != "" {
		cfg.Output.Journal = *journalPath
	}

	var logPath *string
	if cfg.Log.File != "" {
		p := cfg.Resolve(cfg.Log.File)
		logPath = &p
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(dir string) (*config.Config, error) {
	if dir != "" {
		return config.Load(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	rt := vm.NewRuntimeWithOptions(vm.Options{GCThreshold: cfg.Heap.GCThreshold})

	if path := cfg.Resolve(cfg.Output.Journal); path != "" {
		j, err := journal.Open(path)
		if err != nil {
			return err
		}
		defer j.Close()

		runID := uuid.NewString()
		rt.Heap().OnCollect(func(s *vm.GCStats) {
			if err := j.Record(context.Background(), runID, s); err != nil {
				log.Errorf("journal: %s", err)
			}
		})
		log.Infof("journaling run %s to %s", runID, path)
	}

	rep, err := runWorkload(rt, cfg.Workload)
	if err != nil {
		return err
	}

	fmt.Printf("collections: %d x %d keys, every %d retained\n",
		rep.Collections, rep.Elements, cfg.Workload.RetainEvery)
	fmt.Printf("cycles:      %d\n", rt.Heap().Cycles())
	fmt.Printf("live:        %d objects\n", rep.Stats.Live)
	fmt.Printf("swept:       %d objects\n", rep.Stats.Swept)
	fmt.Printf("pruned:      %d weak entries\n", rep.Stats.WeakEntriesPruned)
	fmt.Printf("members:     %d (%d keys retained)\n", rep.Members, rep.Retained)
	fmt.Printf("duration:    %s\n", rep.Stats.Duration)

	if path := cfg.Resolve(cfg.Output.Snapshot); path != "" {
		data, err := vm.MarshalSnapshot(rep.Snapshot)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		log.Infof("wrote snapshot (%d objects) to %s", rep.Snapshot.TotalObjects(), path)
	}
	return nil
}
