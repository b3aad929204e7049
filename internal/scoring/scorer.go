// Package scoring implements the hand-weighted risk formula. It is not a
// machine-learned model: every weight is fixed and auditable, and the same
// feature vector always produces the same score.
package scoring

import (
	"math"

	"phishguard/internal/features"
)

const (
	baseScore = 50

	// IPLiteralBonus is applied by the analyzer after scoring, not here,
	// so the scorer stays composable. An IP-literal domain additionally
	// forces a phishing verdict downstream unless whitelisted.
	IPLiteralBonus = 25

	urlLengthCap    = 150
	domainLengthCap = 50
	domainAgeCap    = 365
	expirationCap   = 730
	ttlFloor        = 300
	ttlCeiling      = 86400
)

// Linear per-unit weights, applied in this fixed order: float addition is
// not associative, and the same vector must always yield the bit-identical
// score. Features with context-dependent handling (domain_in_ip,
// nameserver/MX counts, question marks, WHOIS ages, vowel ratio) are
// deliberately absent; their rules apply them exactly once.
var linearWeights = []struct {
	name   string
	weight float64
}{
	{"qty_dot_url", 0.05},
	{"qty_hyphen_url", 0.05},
	{"qty_underline_url", 0.05},
	{"length_url", 0.1},
	{"qty_at_url", 0.1},
	{"qty_dot_domain", 1.0},
	{"domain_length", 0.05},
	{"tls_ssl_certificate", -5},
	{"domain_google_index", -10},
	{"url_google_index", -5},
	{"qty_redirects", 2},
	{"qty_ip_resolved", -0.5},
	{"domain_spf", -2},
	{"url_shortened", 15},
	{"ttl_hostname", -0.0001},
	{"email_in_url", 20},
	{"server_client_domain", 5},
}

// Adjustment is one named contribution to the running total. Keeping the
// rules as a list makes each one testable in isolation and fixes their
// application order.
type Adjustment struct {
	Name  string
	Delta float64
}

type rule struct {
	name  string
	apply func(features.Vector) float64
}

// Ordered context rules. Order is part of the contract: the WHOIS rule
// decides whether age terms apply at all, and the DNS rule owns the
// nameserver/MX contributions outright.
var contextRules = []rule{
	{"random_looking_domain", randomLookingDomain},
	{"hyphen_burst", hyphenBurst},
	{"whois", whoisRule},
	{"dns_infrastructure", dnsInfrastructure},
}

// Score maps a feature vector to a risk score in [0,100].
func Score(v features.Vector) float64 {
	score, _ := Evaluate(v)
	return score
}

// Evaluate returns the score plus every nonzero contribution by name,
// which the decision layer uses to build explanations.
func Evaluate(v features.Vector) (float64, []Adjustment) {
	adjustments := []Adjustment{{Name: "base", Delta: baseScore}}
	total := float64(baseScore)

	for _, w := range linearWeights {
		value := normalize(w.name, v[w.name])
		if delta := value * w.weight; delta != 0 {
			adjustments = append(adjustments, Adjustment{Name: w.name, Delta: delta})
			total += delta
		}
	}

	// A single ? is normal query syntax; only the excess is suspicious.
	if qm := v["qty_questionmark_url"]; qm > 1 {
		delta := (qm - 1) * 2
		adjustments = append(adjustments, Adjustment{Name: "excess_questionmarks", Delta: delta})
		total += delta
	}

	// Proper words have vowels; a vowel-starved domain reads as generated.
	if dl := v["domain_length"]; dl > 0 {
		delta := -10 * (v["qty_vowels_domain"] / dl)
		if delta != 0 {
			adjustments = append(adjustments, Adjustment{Name: "vowel_ratio", Delta: delta})
			total += delta
		}
	}

	for _, r := range contextRules {
		if delta := r.apply(v); delta != 0 {
			adjustments = append(adjustments, Adjustment{Name: r.name, Delta: delta})
			total += delta
		}
	}

	return clamp(total), adjustments
}

func normalize(name string, value float64) float64 {
	switch name {
	case "length_url":
		return math.Min(value, urlLengthCap)
	case "domain_length":
		return math.Min(value, domainLengthCap)
	case "ttl_hostname":
		return math.Min(math.Max(value, ttlFloor), ttlCeiling)
	}
	return value
}

// randomLookingDomain flags long hosts with almost no vowels, independent
// of the proportional vowel term above.
func randomLookingDomain(v features.Vector) float64 {
	dl := v["domain_length"]
	if dl > 15 && v["qty_vowels_domain"]/dl < 0.2 {
		return 15
	}
	return 0
}

func hyphenBurst(v features.Vector) float64 {
	if v["qty_hyphen_domain"] > 2 {
		return 10
	}
	return 0
}

// whoisRule owns both age-derived features. The exact 0/0 pair is the
// "WHOIS lookup failed" sentinel: it must not be read as a brand-new
// domain, and the linear age terms are skipped entirely in that branch
// because they would be misleading zeros.
func whoisRule(v features.Vector) float64 {
	activation := v["time_domain_activation"]
	expiration := v["time_domain_expiration"]

	if activation == 0 && expiration == 0 {
		// Indexing is independent corroboration of legitimacy, so a
		// WHOIS blackout on an indexed site is only mildly suspicious.
		if v["domain_google_index"] >= 1 {
			return 5
		}
		return 15
	}

	delta := -0.1 * math.Min(activation, domainAgeCap)
	delta += -0.01 * math.Min(expiration, expirationCap)
	if activation < 7 {
		delta += 15
	}
	if expiration < 90 {
		delta += 10
	}
	return delta
}

// dnsInfrastructure owns the nameserver and MX contributions; those counts
// never appear in the linear loop, so they cannot be double-counted. The
// penalties are asymmetric on indexing for the same corroboration reason
// as the WHOIS rule.
func dnsInfrastructure(v features.Vector) float64 {
	ns := v["qty_nameservers"]
	mx := v["qty_mx_servers"]
	indexed := v["domain_google_index"] >= 1

	delta := 0.0
	if indexed {
		if ns == 0 {
			delta += 10
		}
		if mx == 0 {
			delta += 5
		}
	} else {
		if ns == 0 {
			delta += 25
		}
		if mx == 0 {
			delta += 10
		}
		if v["url_google_index"] == 0 {
			delta += 10
		}
	}

	if ns > 0 {
		delta += -0.5 * ns
	}
	if mx > 0 {
		delta += -0.3 * mx
	}
	return delta
}

// Clamp bounds a score to [0,100]. Exported for the analyzer, which adds
// the IP-literal bonus after scoring and must re-bound the result.
func Clamp(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

func clamp(score float64) float64 { return Clamp(score) }
