package scoring

import (
	"testing"

	"phishguard/internal/features"
)

// vectorWith builds a complete vector with the given overrides, so tests
// never depend on missing-key behavior.
func vectorWith(overrides map[string]float64) features.Vector {
	return features.Assemble(overrides)
}

func TestScore_RangeInvariant(t *testing.T) {
	// 1. All-zero vector (every probe failed, empty URL)
	if s := Score(vectorWith(nil)); s < 0 || s > 100 {
		t.Errorf("zero vector score %v out of range", s)
	}

	// 2. Adversarial maximum: every positive signal maxed
	hostile := vectorWith(map[string]float64{
		"length_url":           10000,
		"qty_dot_url":          500,
		"qty_hyphen_url":       500,
		"qty_at_url":           50,
		"qty_questionmark_url": 50,
		"qty_redirects":        30,
		"url_shortened":        1,
		"email_in_url":         1,
		"server_client_domain": 1,
		"domain_length":        300,
		"qty_dot_domain":       30,
		"qty_hyphen_domain":    30,
	})
	if s := Score(hostile); s != 100 {
		t.Errorf("hostile vector score = %v, want clamped 100", s)
	}

	// 3. Adversarial minimum: every negative signal maxed
	pristine := vectorWith(map[string]float64{
		"tls_ssl_certificate":    1,
		"domain_google_index":    1,
		"url_google_index":       1,
		"domain_spf":             1,
		"qty_ip_resolved":        100,
		"qty_nameservers":        50,
		"qty_mx_servers":         50,
		"time_domain_activation": 9000,
		"time_domain_expiration": 9000,
		"ttl_hostname":           86400,
		"qty_vowels_domain":      10,
		"domain_length":          10,
	})
	if s := Score(pristine); s != 0 {
		t.Errorf("pristine vector score = %v, want clamped 0", s)
	}
}

func TestScore_Deterministic(t *testing.T) {
	// Every linear weight contributes a nonzero term, so any
	// order-dependent summation shows up as bit-level drift.
	v := vectorWith(map[string]float64{
		"qty_dot_url":            7,
		"qty_hyphen_url":         3,
		"qty_underline_url":      2,
		"length_url":             83,
		"qty_at_url":             1,
		"qty_dot_domain":         3,
		"domain_length":          27,
		"tls_ssl_certificate":    1,
		"domain_google_index":    1,
		"url_google_index":       1,
		"qty_redirects":          2,
		"qty_ip_resolved":        3,
		"domain_spf":             1,
		"url_shortened":          1,
		"ttl_hostname":           3571,
		"email_in_url":           1,
		"server_client_domain":   1,
		"qty_questionmark_url":   3,
		"qty_vowels_domain":      9,
		"qty_nameservers":        3,
		"qty_mx_servers":         2,
		"time_domain_activation": 123,
		"time_domain_expiration": 457,
	})

	first := Score(v)
	for i := 0; i < 10000; i++ {
		if got := Score(v); got != first {
			t.Fatalf("run %d: score %v != first run %v", i, got, first)
		}
	}
}

func TestEvaluate_AdjustmentOrderStable(t *testing.T) {
	v := vectorWith(map[string]float64{
		"length_url": 80, "qty_dot_url": 5, "tls_ssl_certificate": 1,
		"qty_redirects": 2, "domain_spf": 1, "url_shortened": 1,
		"time_domain_activation": 100, "time_domain_expiration": 200,
	})

	_, first := Evaluate(v)
	for i := 0; i < 100; i++ {
		_, got := Evaluate(v)
		if len(got) != len(first) {
			t.Fatalf("run %d: %d adjustments != %d", i, len(got), len(first))
		}
		for j := range first {
			if got[j] != first[j] {
				t.Fatalf("run %d: adjustment %d = %+v, want %+v", i, j, got[j], first[j])
			}
		}
	}
}

func TestQuestionMarkSkipRule(t *testing.T) {
	// Mid-range baseline so neither clamp edge can mask the delta.
	baseline := func() map[string]float64 {
		return map[string]float64{
			"length_url":             40,
			"tls_ssl_certificate":    1,
			"domain_google_index":    1,
			"qty_nameservers":        2,
			"qty_mx_servers":         2,
			"time_domain_activation": 30,
			"time_domain_expiration": 200,
		}
	}

	one := baseline()
	one["qty_questionmark_url"] = 1
	scoreOne := Score(vectorWith(one))

	two := baseline()
	two["qty_questionmark_url"] = 2
	scoreTwo := Score(vectorWith(two))

	scoreZero := Score(vectorWith(baseline()))

	if scoreOne != scoreZero {
		t.Errorf("a single ? must contribute nothing: got %v vs %v", scoreOne, scoreZero)
	}
	if scoreTwo <= scoreOne {
		t.Errorf("a second ? must add risk: got %v vs %v", scoreTwo, scoreOne)
	}
	if diff := scoreTwo - scoreOne; !almostEqual(diff, 2) {
		t.Errorf("excess ? contribution = %v, want 2", diff)
	}
}

func TestWhoisRule(t *testing.T) {
	tests := []struct {
		activation float64
		expiration float64
		indexed    float64
		want       float64
		desc       string
	}{
		{0, 0, 1, 5, "WHOIS failure on indexed site is mild"},
		{0, 0, 0, 15, "WHOIS failure on un-indexed site is stronger"},
		{3650, 365, 0, -0.1*365 - 0.01*365, "Old domain: capped age credit"},
		{3, 30, 0, -0.1*3 - 0.01*30 + 15 + 10, "Fresh, short-lived domain gets both flat penalties"},
		{400, 1000, 0, -0.1*365 - 0.01*730, "Both caps bind"},
	}

	for _, tc := range tests {
		v := vectorWith(map[string]float64{
			"time_domain_activation": tc.activation,
			"time_domain_expiration": tc.expiration,
			"domain_google_index":    tc.indexed,
		})
		if got := whoisRule(v); !almostEqual(got, tc.want) {
			t.Errorf("%s: whoisRule = %v, want %v", tc.desc, got, tc.want)
		}
	}
}

func TestDNSInfrastructureRule(t *testing.T) {
	tests := []struct {
		ns, mx, domainIdx, urlIdx float64
		want                      float64
		desc                      string
	}{
		{0, 0, 1, 1, 15, "Indexed site, bare DNS: mild penalties"},
		{0, 0, 0, 0, 45, "Un-indexed, bare DNS, URL also unknown: full stack"},
		{0, 0, 0, 1, 35, "Un-indexed domain but URL indexed: skip the extra 10"},
		{4, 5, 1, 1, -0.5*4 - 0.3*5, "Healthy DNS earns a small credit"},
		{2, 0, 1, 1, 5 - 0.5*2, "Indexed, MX missing only"},
	}

	for _, tc := range tests {
		v := vectorWith(map[string]float64{
			"qty_nameservers":     tc.ns,
			"qty_mx_servers":      tc.mx,
			"domain_google_index": tc.domainIdx,
			"url_google_index":    tc.urlIdx,
		})
		if got := dnsInfrastructure(v); !almostEqual(got, tc.want) {
			t.Errorf("%s: dnsInfrastructure = %v, want %v", tc.desc, got, tc.want)
		}
	}
}

func TestRandomLookingDomainRule(t *testing.T) {
	v := vectorWith(map[string]float64{"domain_length": 20, "qty_vowels_domain": 2})
	if got := randomLookingDomain(v); got != 15 {
		t.Errorf("vowel-starved long domain: got %v, want 15", got)
	}
	v = vectorWith(map[string]float64{"domain_length": 20, "qty_vowels_domain": 8})
	if got := randomLookingDomain(v); got != 0 {
		t.Errorf("well-voweled domain: got %v, want 0", got)
	}
	v = vectorWith(map[string]float64{"domain_length": 10, "qty_vowels_domain": 0})
	if got := randomLookingDomain(v); got != 0 {
		t.Errorf("short domain exempt: got %v, want 0", got)
	}
}

func TestHyphenBurstRule(t *testing.T) {
	if got := hyphenBurst(vectorWith(map[string]float64{"qty_hyphen_domain": 3})); got != 10 {
		t.Errorf("3 hyphens: got %v, want 10", got)
	}
	if got := hyphenBurst(vectorWith(map[string]float64{"qty_hyphen_domain": 2})); got != 0 {
		t.Errorf("2 hyphens: got %v, want 0", got)
	}
}

func TestEvaluate_NamedAdjustments(t *testing.T) {
	v := vectorWith(map[string]float64{
		"qty_hyphen_domain": 4,
		"domain_length":     18,
		"qty_vowels_domain": 1,
	})
	_, adjustments := Evaluate(v)

	names := make(map[string]bool)
	for _, a := range adjustments {
		names[a.Name] = true
	}
	for _, want := range []string{"base", "hyphen_burst", "random_looking_domain", "whois", "dns_infrastructure"} {
		if !names[want] {
			t.Errorf("expected adjustment %q in %v", want, names)
		}
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
