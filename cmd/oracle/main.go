// Copyright 2025 The Oracle Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the endpoint prediction tool.

Oracle learns the shape of a target's API from a handful of known endpoints
and proposes new paths that are likely to exist. A second-order Markov chain
is trained over the path segments of the known endpoints, candidates are
generated by walking the chain and injecting common words, and every
candidate is ranked by its smoothed probability. Candidates above the
threshold can then be checked against the live target.

# Usage

Predict and validate endpoints for a target:

	oracle -target https://api.example.com -eps /api/v1/users,/api/v1/products

Load known endpoints and words from files, print candidates only:

	oracle -eplist endpoints.json -wordfile words.txt -dry-run

Widen the pool with the built-in mutator or radamsa when it is small:

	oracle -target https://api.example.com -eplist endpoints.json -fuzz -iters 10

Explore next-token predictions interactively:

	oracle -eplist endpoints.json -c

Serve predictions over msgpack IPC on stdin/stdout:

	oracle -eplist endpoints.json -serve

Endpoint and word lists are JSON arrays of strings or newline-delimited text
files, picked by extension. Without a word list the built-in list is used.

# Configuration

Engine, fuzzing and HTTP settings live in a TOML file created with defaults
at [UserConfigDir]/oracle/config.toml. Flags override file values:

	[engine]
	alpha = 1.0
	threshold = 0.001
	top_k = 3
	max_length = 8
	seed_position = "terminal"

	[fuzz]
	iters = 5
	min_pool = 10
	binary = "radamsa"

	[http]
	throttle = 0.5
	timeout = 5.0
	static_pattern = ""
	valid_codes = [200, 401, 403]

# Command Line Flags

	-target string
	    Target base URL (e.g. "https://something.com")
	-eplist string
	    File with the known endpoints
	-eps string
	    Inline comma-separated list of known endpoints
	-wordfile string
	    File with common words
	-words string
	    Inline comma-separated list of common words
	-fuzz
	    Augment a small candidate pool with a fuzzer
	-iters int
	    Fuzzer iterations per candidate
	-throttle float
	    Seconds between requests
	-static-pattern string
	    Static URL query parameters (e.g. "?api_key=yourkey")
	-threshold float
	    Probability threshold for candidate filtering
	-dry-run
	    Print candidates without sending requests
	-c  Run the next-token explorer
	-serve
	    Run the msgpack IPC server
	-config string
	    Path to a custom config file
	-reset-config
	    Rewrite the default config file with builtin defaults
	-d  Toggle debug mode

Run with -h for the full list.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/oracle/internal/cli"
	"github.com/bastiangx/oracle/internal/logger"
	"github.com/bastiangx/oracle/internal/probe"
	"github.com/bastiangx/oracle/internal/report"
	"github.com/bastiangx/oracle/pkg/config"
	"github.com/bastiangx/oracle/pkg/dictionary"
	"github.com/bastiangx/oracle/pkg/fuzz"
	"github.com/bastiangx/oracle/pkg/oracle"
	"github.com/bastiangx/oracle/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "oracle"
	gh      = "https://github.com/bastiangx/oracle"
)

// sigHandler exits on interrupt for the modes that block on stdin.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only manages the flow between loading, the engine and the chosen mode.
func main() {
	defaults := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run the next-token explorer -- useful for testing and debugging")
	serveMode := flag.Bool("serve", false, "Run the msgpack IPC server on stdin/stdout")
	dryRun := flag.Bool("dry-run", false, "Print candidates without sending requests")
	configPath := flag.String("config", "", "Path to a custom config file")
	resetConfig := flag.Bool("reset-config", false, "Rewrite the default config file with builtin defaults and exit")

	target := flag.String("target", "", `Target base URL (e.g. "https://something.com")`)
	eplist := flag.String("eplist", "", "File with the known endpoints (JSON array or one per line)")
	eps := flag.String("eps", "", "Inline comma-separated list of known endpoints")
	wordfile := flag.String("wordfile", "", "File with common words (JSON array or one per line)")
	words := flag.String("words", "", "Inline comma-separated list of common words")
	showOrigin := flag.Bool("origin", false, "Show which stage produced each candidate")

	var o overrides
	flag.BoolVar(&o.fuzz, "fuzz", defaults.Fuzz.Enabled, "Augment a small candidate pool with a fuzzer")
	flag.BoolVar(&o.builtin, "builtin-fuzz", defaults.Fuzz.Builtin, "Use the built-in mutator instead of radamsa")
	flag.IntVar(&o.iters, "iters", defaults.Fuzz.Iters, "Fuzzer iterations per candidate")
	flag.Float64Var(&o.throttle, "throttle", defaults.HTTP.Throttle, "Seconds between requests")
	flag.StringVar(&o.staticPattern, "static-pattern", defaults.HTTP.StaticPattern, `Static URL query parameters (e.g. "?api_key=yourkey")`)
	flag.Float64Var(&o.threshold, "threshold", defaults.Engine.Threshold, "Probability threshold for candidate filtering")
	flag.Float64Var(&o.alpha, "alpha", defaults.Engine.Alpha, "Laplace smoothing constant")
	flag.IntVar(&o.topK, "topk", defaults.Engine.TopK, "Successors kept per walk step")
	flag.IntVar(&o.maxLength, "maxlen", defaults.Engine.MaxLength, "Maximum generated path length in segments")
	flag.StringVar(&o.seedPosition, "seed-pos", defaults.Engine.SeedPosition, "Where common words are injected: terminal, first, anywhere or none")
	flag.IntVar(&o.limit, "limit", defaults.Engine.Limit, "Maximum candidates to keep (0 for all)")
	flag.BoolVar(&o.includeKnown, "include-known", defaults.Engine.IncludeKnown, "Keep known endpoints in the ranking")
	flag.IntVar(&o.k, "k", defaults.CLI.DefaultK, "Tokens shown per prediction in the explorer")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}
	if flag.NFlag() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	logger.Setup(*debugMode)

	if *resetConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		path, _ := config.GetDefaultConfigPath()
		log.Printf("Config rewritten with defaults: %s", path)
		return
	}

	cfg, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))

	flag.Visit(func(f *flag.Flag) { o.apply(f.Name, cfg) })
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	known, err := dictionary.Resolve(*eplist, *eps, nil)
	if errors.Is(err, dictionary.ErrNoSource) {
		log.Error("No known endpoints provided. Use -eplist or -eps.")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Error reading endpoints: %v", err)
	}
	common, err := dictionary.Resolve(*wordfile, *words, dictionary.DefaultWords())
	if err != nil {
		log.Fatalf("Error reading common words: %v", err)
	}
	log.Debugf("Loaded %d known endpoints and %d words", len(known), len(common))

	start := time.Now()
	engine, err := oracle.New(opts, known, common)
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
	st := engine.Stats()
	log.Debugf("Trained on %d endpoints in [ %v ]: contexts=[%d], vocabulary=[%d], seeds=[%d]",
		st.Endpoints, time.Since(start), st.Contexts, st.Vocabulary, st.Seeds)

	aug := newAugmenter(cfg.Fuzz, opts.Policy.RandSeed)

	if *cliMode {
		sigHandler()
		log.SetReportTimestamp(false)
		explorer := cli.NewExplorer(engine, cfg.CLI.DefaultK, cfg.CLI.ShowCounts || *debugMode)
		if err := explorer.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	if *serveMode {
		sigHandler()
		log.Debug("spawning IPC")
		showStartupInfo(st)
		if err := server.NewServer(engine, aug).Start(context.Background()); err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, engine, aug, cfg.HTTP, *target, *dryRun, *showOrigin)
	stop()
	os.Exit(code)
}

// run predicts, prints and optionally probes. It returns the exit code.
func run(ctx context.Context, engine *oracle.Engine, aug fuzz.Augmenter, hc config.HTTPConfig, target string, dryRun, showOrigin bool) int {
	if target == "" && !dryRun {
		log.Error("No target provided. Use -target, or -dry-run to only print candidates.")
		return 1
	}

	start := time.Now()
	cands, err := engine.Predict(ctx, aug)
	if err != nil {
		log.Errorf("Prediction failed: %v", err)
		return 1
	}
	log.Debugf("Ranked %d candidates in [ %v ]", len(cands), time.Since(start))

	printer := report.New(os.Stdout, showOrigin)
	printer.Candidates(cands)
	if dryRun || len(cands) == 0 {
		return 0
	}

	prober, err := probe.New(probe.Options{
		BaseURL:       target,
		StaticPattern: hc.StaticPattern,
		Throttle:      hc.ThrottleDuration(),
		Timeout:       hc.TimeoutDuration(),
		ValidCodes:    hc.ValidCodes,
		UserAgent:     probe.DefaultOptions().UserAgent,
	}, nil)
	if err != nil {
		log.Error(err)
		return 1
	}

	printer.ProbeHeader()
	sent := 0
	reachable, err := prober.Probe(ctx, cands, func(r probe.Result) {
		sent++
		printer.Result(r)
	})
	printer.Summary(reachable, sent)
	if err != nil {
		log.Warnf("Validation stopped: %v", err)
		return 130
	}
	return 0
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ Oracle ] Predicts API endpoints that probably exist")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the trained model.
func showStartupInfo(st oracle.Stats) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("========")
	println(" Oracle ")
	println("========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("endpoints: [ %d ], vocabulary: [ %d ]", st.Endpoints, st.Vocabulary)
	log.Info("status: ready")
	println("========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
