// Package engine combines lists, threat intel, the heuristic score and
// the classifier into a single verdict per URL.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"golang.org/x/net/publicsuffix"

	"phishguard/internal/content"
	"phishguard/internal/features"
	"phishguard/internal/inference"
	"phishguard/internal/intel"
	"phishguard/internal/repository"
	"phishguard/internal/scoring"
	"phishguard/internal/urlinfo"
)

// Verdict kinds, in priority order.
const (
	KindBlacklisted = "blacklisted"
	KindWhitelisted = "whitelisted"
	KindThreatIntel = "threat_intel"
	KindModel       = "model"
	KindHeuristic   = "heuristic"
)

// Risk levels, the original five-band scale.
const (
	LevelVerySafe     = "very_safe"
	LevelSafe         = "safe"
	LevelSuspicious   = "suspicious"
	LevelHighRisk     = "high_risk"
	LevelVeryHighRisk = "very_high_risk"
)

// Verdict is the engine's answer for one URL.
type Verdict struct {
	URL          string   `json:"url"`
	Domain       string   `json:"domain"`
	Phishing     bool     `json:"phishing"`
	Kind         string   `json:"kind"`
	Score        float64  `json:"risk_score"`
	RiskLevel    string   `json:"risk_level"`
	Confidence   float64  `json:"confidence,omitempty"`
	Explanations []string `json:"explanations,omitempty"`
}

// Thresholds govern how score and classifier output combine.
type Thresholds struct {
	HighScore          float64 // score alone above this + phishing label => phishing
	MediumScore        float64 // above this the label needs confidence
	HighConfidence     float64 // confidence needed in the medium band
	OverrideConfidence float64 // confidence that convicts at any score
	HeuristicPhishing  float64 // classifier-less fallback cut
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HighScore:          80,
		MediumScore:        60,
		HighConfidence:     0.7,
		OverrideConfidence: 0.9,
		HeuristicPhishing:  60,
	}
}

// Analyzer is the feature pipeline contract (analysis.Analyzer).
type Analyzer interface {
	ExtractAndScore(ctx context.Context, rawURL string) (features.Vector, float64, error)
}

// Classifier is the model contract (inference.Predictor).
type Classifier interface {
	Predict(vector []float32) (inference.Prediction, error)
	GetFeatureOrder() []string
}

// ThreatIntel is the external reputation contract (intel.SafeBrowsingClient).
type ThreatIntel interface {
	Check(ctx context.Context, rawURL string) intel.SafeBrowsingResult
}

// PageInspector is the content heuristics contract (content.Inspector).
type PageInspector interface {
	Inspect(ctx context.Context, rawURL string) (*content.PageSignals, error)
}

// RBLChecker is the DNS blocklist contract (intel.DNSBLChecker).
type RBLChecker interface {
	Check(ctx context.Context, domain string, ips []string) []intel.RBLHit
}

// Engine evaluates URLs. Optional collaborators may be nil; the engine
// degrades to whatever evidence it still has.
type Engine struct {
	blacklist *DomainTrie
	whitelist *DomainTrie
	db        *repository.ListDB

	analyzer   Analyzer
	classifier Classifier
	threat     ThreatIntel
	rbl        RBLChecker
	inspector  PageInspector

	resolveIPs func(ctx context.Context, host string) []string

	thresholds Thresholds
}

// Config wires an Engine. Analyzer is mandatory.
type Config struct {
	DB         *repository.ListDB
	Analyzer   Analyzer
	Classifier Classifier
	Threat     ThreatIntel
	RBL        RBLChecker
	Inspector  PageInspector
	ResolveIPs func(ctx context.Context, host string) []string
	Thresholds Thresholds
}

func New(cfg Config) (*Engine, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("engine: analyzer is required")
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}

	e := &Engine{
		blacklist:  NewDomainTrie(),
		whitelist:  NewDomainTrie(),
		db:         cfg.DB,
		analyzer:   cfg.Analyzer,
		classifier: cfg.Classifier,
		threat:     cfg.Threat,
		rbl:        cfg.RBL,
		inspector:  cfg.Inspector,
		resolveIPs: cfg.ResolveIPs,
		thresholds: cfg.Thresholds,
	}

	if cfg.DB != nil {
		if err := e.reloadLists(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) reloadLists() error {
	black, err := e.db.GetList(repository.ListBlacklist)
	if err != nil {
		return fmt.Errorf("loading blacklist: %w", err)
	}
	white, err := e.db.GetList(repository.ListWhitelist)
	if err != nil {
		return fmt.Errorf("loading whitelist: %w", err)
	}
	e.blacklist.BulkInsert(black)
	e.whitelist.BulkInsert(white)
	log.Printf("[engine] loaded %d blacklist / %d whitelist domains", len(black), len(white))
	return nil
}

// AddBlacklistRule makes a freshly convicted domain take effect without
// a restart.
func (e *Engine) AddBlacklistRule(domain string) {
	e.blacklist.Insert(repository.NormalizeDomain(domain))
}

// Evaluate runs the full decision chain for one URL. The only error is
// urlinfo.ErrParse; everything else degrades.
func (e *Engine) Evaluate(ctx context.Context, rawURL string) (Verdict, error) {
	u, err := urlinfo.Parse(rawURL)
	if err != nil {
		return Verdict{}, err
	}

	host := repository.NormalizeDomain(u.Host())
	v := Verdict{URL: rawURL, Domain: host}

	// 1. Lists beat everything. Blacklist beats whitelist so a poisoned
	// whitelist entry cannot shadow a conviction.
	if e.blacklist.Match(host) {
		v.Phishing = true
		v.Kind = KindBlacklisted
		v.Score = 100
		v.RiskLevel = riskLevel(v.Score)
		v.Explanations = append(v.Explanations, e.listExplanation(u, host, repository.ListBlacklist))
		return v, nil
	}
	if e.whitelist.Match(host) {
		v.Kind = KindWhitelisted
		v.Score = 0
		v.RiskLevel = riskLevel(v.Score)
		v.Explanations = append(v.Explanations, e.listExplanation(u, host, repository.ListWhitelist))
		return v, nil
	}

	// 2. Feature pipeline.
	vector, score, err := e.analyzer.ExtractAndScore(ctx, rawURL)
	if err != nil {
		return Verdict{}, err
	}

	explanations := scoreExplanations(vector)
	if u.IsIPLiteral() {
		explanations = append(explanations, fmt.Sprintf("ip_literal_host: +%d", scoring.IPLiteralBonus))
	}

	// 3. Threat intel.
	if e.threat != nil {
		if res := e.threat.Check(ctx, rawURL); res.Flagged {
			v.Phishing = true
			v.Kind = KindThreatIntel
			v.Score = scoring.Clamp(score + 30)
			v.RiskLevel = riskLevel(v.Score)
			v.Explanations = append(explanations, "threat intel match: "+res.ThreatType)
			return v, nil
		}
	}
	if e.rbl != nil && !u.IsIPLiteral() {
		var ips []string
		if e.resolveIPs != nil {
			ips = e.resolveIPs(ctx, host)
		}
		for _, hit := range e.rbl.Check(ctx, host, ips) {
			score = scoring.Clamp(score + 10)
			explanations = append(explanations, "listed on "+hit.Zone)
		}
	}

	v.Score = score
	v.Explanations = explanations

	// 4. Numeric hosts are phishing unless a list said otherwise.
	if u.IsIPLiteral() {
		v.Phishing = true
		v.Kind = KindHeuristic
		v.RiskLevel = riskLevel(v.Score)
		return v, nil
	}

	// 5. Classifier bands, with the heuristic fallback when the model
	// is unavailable.
	pred, perr := e.predict(vector)
	if perr != nil {
		if !errors.Is(perr, inference.ErrClassifierUnavailable) {
			log.Printf("[engine] prediction failed for %s: %v", host, perr)
		}
		v.Kind = KindHeuristic
		v.Phishing = score > e.thresholds.HeuristicPhishing
		v.RiskLevel = riskLevel(v.Score)
		return v, nil
	}

	v.Kind = KindModel
	v.Confidence = pred.Confidence
	switch {
	case pred.IsPhishing && score > e.thresholds.HighScore:
		v.Phishing = true
	case pred.IsPhishing && score > e.thresholds.MediumScore && pred.Confidence > e.thresholds.HighConfidence:
		v.Phishing = true
	case pred.IsPhishing && pred.Confidence > e.thresholds.OverrideConfidence:
		v.Phishing = true
	}

	// 6. Inconclusive middle band: let the page itself break the tie.
	if !v.Phishing && e.inspector != nil &&
		score > e.thresholds.MediumScore && score <= e.thresholds.HighScore {
		if signals, ierr := e.inspector.Inspect(ctx, rawURL); ierr == nil {
			if delta := signals.RiskDelta(); delta > 0 {
				v.Score = scoring.Clamp(v.Score + delta)
				v.Explanations = append(v.Explanations, fmt.Sprintf("page content: +%.0f", delta))
				if v.Score > e.thresholds.HighScore {
					v.Phishing = true
				}
			}
		}
	}

	v.RiskLevel = riskLevel(v.Score)
	return v, nil
}

func (e *Engine) predict(vector features.Vector) (inference.Prediction, error) {
	if e.classifier == nil {
		return inference.Prediction{}, inference.ErrClassifierUnavailable
	}
	return e.classifier.Predict(vector.Flatten(e.classifier.GetFeatureOrder()))
}

// listExplanation names the source of a list hit when the store can
// still tell us; trie matches on parent domains fall back to the
// registrable domain.
func (e *Engine) listExplanation(u *urlinfo.URL, host, list string) string {
	if e.db != nil {
		for _, candidate := range lookupCandidates(host) {
			if entry, err := e.db.Lookup(candidate); err == nil && entry != nil && entry.List == list {
				return fmt.Sprintf("domain %s on %s (source: %s)", entry.Domain, list, entry.Source)
			}
		}
	}
	return fmt.Sprintf("domain %s on %s", host, list)
}

// lookupCandidates returns the exact host plus its registrable domain,
// so parent-domain trie matches can be traced back to a stored row.
func lookupCandidates(host string) []string {
	out := []string{host}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil && etld1 != host {
		out = append(out, etld1)
	}
	return out
}

// scoreExplanations renders the material score contributions, largest
// first, skipping the base and the sub-noise terms.
func scoreExplanations(vector features.Vector) []string {
	_, adjustments := scoring.Evaluate(vector)

	material := adjustments[:0]
	for _, a := range adjustments {
		if a.Name == "base" || a.Delta < 5 && a.Delta > -5 {
			continue
		}
		material = append(material, a)
	}
	sort.SliceStable(material, func(i, j int) bool {
		return material[i].Delta > material[j].Delta
	})

	out := make([]string, 0, len(material))
	for _, a := range material {
		out = append(out, fmt.Sprintf("%s: %+.1f", a.Name, a.Delta))
	}
	return out
}

func riskLevel(score float64) string {
	switch {
	case score <= 20:
		return LevelVerySafe
	case score <= 40:
		return LevelSafe
	case score <= 60:
		return LevelSuspicious
	case score <= 80:
		return LevelHighRisk
	default:
		return LevelVeryHighRisk
	}
}
