package features

import (
	"net/url"
	"regexp"
	"strings"

	"phishguard/internal/urlinfo"
)

// The fixed alphabet counted in every URL component. Keys are the name
// fragments used in the canonical schema.
var countedChars = []struct {
	char byte
	name string
}{
	{'.', "dot"}, {'-', "hyphen"}, {'_', "underline"}, {'/', "slash"},
	{'?', "questionmark"}, {'=', "equal"}, {'@', "at"}, {'&', "and"},
	{'!', "exclamation"}, {' ', "space"}, {'~', "tilde"}, {',', "comma"},
	{'+', "plus"}, {'*', "asterisk"}, {'#', "hashtag"}, {'$', "dollar"},
	{'%', "percent"},
}

var (
	reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	reExt   = regexp.MustCompile(`\.[a-zA-Z0-9]{3,4}$`)
)

// Known shortener services. Matched against the host, not the full URL, so
// "example.com/bit.ly" does not trigger.
var defaultShorteners = []string{
	"bit.ly", "goo.gl", "tinyurl.com", "t.co", "youtu.be",
	"ow.ly", "is.gd", "buff.ly", "rebrand.ly", "cutt.ly",
	"tr.im", "tiny.cc", "rotf.lol",
}

// Major platforms whose short slug-style paths would otherwise look like
// shortener output. Membership always wins over the shortener heuristics.
var defaultTrustedDomains = []string{
	"chatgpt.com", "openai.com", "github.com", "linkedin.com", "twitter.com",
	"facebook.com", "microsoft.com", "google.com", "youtube.com",
	"reddit.com", "medium.com", "notion.so", "discord.com",
}

// LexicalOptions overrides the built-in shortener and trusted-domain lists.
type LexicalOptions struct {
	Shorteners     []string
	TrustedDomains []string
}

// Lexical computes every network-free feature of the URL. Pure and
// deterministic; safe to call concurrently.
func Lexical(u *urlinfo.URL, opts *LexicalOptions) map[string]float64 {
	shorteners := defaultShorteners
	trusted := defaultTrustedDomains
	if opts != nil {
		if len(opts.Shorteners) > 0 {
			shorteners = opts.Shorteners
		}
		if len(opts.TrustedDomains) > 0 {
			trusted = opts.TrustedDomains
		}
	}

	f := make(map[string]float64, len(CanonicalNames))

	countComponent(f, "url", u.Raw)
	countComponent(f, "domain", u.Domain)
	countComponent(f, "directory", u.Directory)
	countComponent(f, "file", u.File)
	countComponent(f, "params", u.Query)

	f["length_url"] = float64(len(u.Raw))
	f["domain_length"] = float64(len(u.Domain))
	f["directory_length"] = float64(len(u.Directory))
	f["file_length"] = float64(len(u.File))
	f["params_length"] = float64(len(u.Query))

	tld := ""
	if parts := strings.Split(u.Host(), "."); len(parts) > 1 {
		tld = parts[len(parts)-1]
	}
	f["qty_tld_url"] = boolToFloat(tld != "")
	f["tld_present_params"] = boolToFloat(tld != "" && strings.Contains(u.Query, tld))

	if values, err := url.ParseQuery(u.Query); err == nil {
		f["qty_params"] = float64(len(values))
	} else {
		f["qty_params"] = 0
	}

	domain := strings.ToLower(u.Domain)
	f["qty_vowels_domain"] = float64(countVowels(domain))
	f["server_client_domain"] = boolToFloat(strings.Contains(domain, "server") || strings.Contains(domain, "client"))
	f["domain_in_ip"] = boolToFloat(u.IsIPLiteral())
	f["email_in_url"] = boolToFloat(reEmail.MatchString(u.Raw))
	f["url_shortened"] = boolToFloat(isShortened(u, shorteners, trusted))

	return f
}

func countComponent(f map[string]float64, suffix, text string) {
	for _, c := range countedChars {
		f["qty_"+c.name+"_"+suffix] = float64(strings.Count(text, string(c.char)))
	}
}

func isShortened(u *urlinfo.URL, shorteners, trusted []string) bool {
	host := u.Host()

	// Trusted platforms short-circuit everything below. Without this,
	// slugs like github.com/abc read as shortener output.
	for _, td := range trusted {
		if host == td || strings.HasSuffix(host, "."+td) {
			return false
		}
	}

	for _, s := range shorteners {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}

	// Generic heuristic: very short host with a multi-segment slug path
	// that doesn't end in a file extension.
	path := u.Directory + u.File
	if len(host) <= 7 && strings.Count(path, "/") >= 1 && len(path) > 2 && !reExt.MatchString(path) {
		return true
	}

	return false
}

func countVowels(s string) int {
	count := 0
	for _, r := range s {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			count++
		}
	}
	return count
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
