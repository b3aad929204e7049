// Package analysis runs the URL feature pipeline end to end: parse,
// lexical features, network probes, assembly, heuristic score.
package analysis

import (
	"context"

	"phishguard/internal/features"
	"phishguard/internal/probes"
	"phishguard/internal/scoring"
	"phishguard/internal/urlinfo"
)

// FeatureCollector is the probe fan-out contract. *probes.Collector is
// the production implementation.
type FeatureCollector interface {
	Collect(ctx context.Context, u *urlinfo.URL) map[string]float64
}

// Analyzer ties the lexical computer and the probe collector together.
type Analyzer struct {
	collector FeatureCollector
	lexOpts   *features.LexicalOptions
}

func NewAnalyzer(collector FeatureCollector, lexOpts *features.LexicalOptions) *Analyzer {
	return &Analyzer{collector: collector, lexOpts: lexOpts}
}

var _ FeatureCollector = (*probes.Collector)(nil)

// ExtractAndScore produces the full feature vector and the heuristic
// risk score for one URL. The only error it returns is urlinfo.ErrParse;
// probe failures degrade to zero-valued features instead.
func (a *Analyzer) ExtractAndScore(ctx context.Context, rawURL string) (features.Vector, float64, error) {
	u, err := urlinfo.Parse(rawURL)
	if err != nil {
		return nil, 0, err
	}

	lexical := features.Lexical(u, a.lexOpts)
	network := a.collector.Collect(ctx, u)
	vector := features.Assemble(lexical, network)

	score := scoring.Score(vector)

	// Numeric hosts get the flat bonus here rather than in the scorer so
	// the scorer stays a pure function of the vector.
	if u.IsIPLiteral() {
		score = scoring.Clamp(score + scoring.IPLiteralBonus)
	}

	return vector, score, nil
}
