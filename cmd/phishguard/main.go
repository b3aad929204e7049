package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phishguard/internal/analysis"
	"phishguard/internal/config"
	"phishguard/internal/content"
	"phishguard/internal/engine"
	"phishguard/internal/features"
	"phishguard/internal/inference"
	"phishguard/internal/intel"
	"phishguard/internal/probes"
	"phishguard/internal/repository"
	"phishguard/internal/updater"
	"phishguard/internal/urlinfo"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config.yaml (default: search paths)")
	skipRefresh := flag.Bool("skip-refresh", false, "skip the feed refresh before analyzing")
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: phishguard [flags] URL [URL...]")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	secrets := config.LoadSecrets()

	db := &repository.ListDB{}
	if err := db.InitDB(cfg.App.DBPath); err != nil {
		log.Fatalf("Fatal: could not initialize database: %v", err)
	}
	defer db.Close()

	if err := db.SyncUserLists(cfg.Lists.Whitelist, cfg.Lists.Blacklist); err != nil {
		log.Fatalf("Fatal: could not sync user lists: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal.")
		cancel()
	}()

	if !*skipRefresh {
		log.Println("Refreshing feeds...")
		updater.Run(ctx, db, cfg.Lists.Sources)
	}

	// Classifier is best-effort: without it the engine falls back to the
	// heuristic score alone.
	var classifier engine.Classifier
	if err := inference.InitONNX(cfg.Model.ONNXLibrary); err != nil {
		log.Printf("ONNX init failed: %v", err)
		log.Println("Running in heuristic-only mode.")
	} else {
		defer inference.CleanupONNX()
		pred, err := inference.NewPredictor(cfg.Model.Dir)
		if err != nil {
			log.Printf("Classifier not loaded: %v", err)
			log.Println("Running in heuristic-only mode.")
		} else {
			log.Println("Classifier loaded.")
			defer pred.Close()
			classifier = pred
		}
	}

	probeTimeout := time.Duration(cfg.Probes.TimeoutSeconds) * time.Second
	dnsProbe := probes.NewDNSProbe(probeTimeout)
	collector := probes.NewCollector(probes.NewIndexProbe(secrets.GoogleAPIKey, secrets.GoogleEngineID), probeTimeout)
	collector.Workers = cfg.Probes.Workers

	analyzer := analysis.NewAnalyzer(collector, &features.LexicalOptions{
		Shorteners:     cfg.Lexical.Shorteners,
		TrustedDomains: cfg.Lexical.TrustedDomains,
	})

	engCfg := engine.Config{
		DB:         db,
		Analyzer:   analyzer,
		Classifier: classifier,
		RBL:        intel.NewDNSBLChecker(dnsProbe),
		ResolveIPs: dnsProbe.LookupA,
		Thresholds: engine.Thresholds{
			HighScore:          cfg.Decision.HighScore,
			MediumScore:        cfg.Decision.MediumScore,
			HighConfidence:     cfg.Decision.HighConfidence,
			OverrideConfidence: cfg.Decision.OverrideConfidence,
			HeuristicPhishing:  cfg.Decision.HeuristicPhishing,
		},
	}
	if secrets.SafeBrowsingKey != "" {
		engCfg.Threat = intel.NewSafeBrowsingClient(secrets.SafeBrowsingKey)
	}
	if cfg.Decision.InspectContent {
		engCfg.Inspector = content.NewInspector()
	}

	eng, err := engine.New(engCfg)
	if err != nil {
		log.Fatalf("Fatal: could not initialize engine: %v", err)
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	exitCode := 0
	for _, raw := range urls {
		if ctx.Err() != nil {
			break
		}

		verdict, err := eng.Evaluate(ctx, raw)
		if err != nil {
			// Unparseable input is reported as maximal risk, never skipped.
			if errors.Is(err, urlinfo.ErrParse) {
				log.Printf("Unparseable URL %q: %v", raw, err)
				verdict = engine.Verdict{
					URL:          raw,
					Phishing:     true,
					Kind:         engine.KindHeuristic,
					Score:        100,
					RiskLevel:    engine.LevelVeryHighRisk,
					Explanations: []string{"url could not be parsed"},
				}
			} else {
				log.Printf("Analysis failed for %q: %v", raw, err)
				exitCode = 1
				continue
			}
		}

		if verdict.Phishing {
			exitCode = 1
		}
		if err := out.Encode(verdict); err != nil {
			log.Fatalf("Fatal: could not encode verdict: %v", err)
		}
	}

	return exitCode
}
