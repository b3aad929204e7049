package urlinfo

import (
	"errors"
	"testing"
)

func TestParse_Components(t *testing.T) {
	tests := []struct {
		input     string
		scheme    string
		domain    string
		directory string
		file      string
		query     string
		desc      string
	}{
		{"http://example.com/login/verify.php?id=1", "http", "example.com", "/login/", "verify.php", "id=1", "Full URL"},
		{"https://example.com/login/", "https", "example.com", "/login/", "", "", "Trailing slash, no file"},
		{"https://example.com/login", "https", "example.com", "/login", "", "", "Dotless final segment is directory"},
		{"https://example.com", "https", "example.com", "", "", "", "No path at all"},
		{"http://sub.example.com/a/b/c.html", "http", "sub.example.com", "/a/b/", "c.html", "", "Nested file"},
		{"example.com/readme.txt", "http", "example.com", "/", "readme.txt", "", "Scheme-less input"},
		{"http://192.168.1.1/login.php", "http", "192.168.1.1", "/", "login.php", "", "IPv4 literal host"},
	}

	for _, tc := range tests {
		u, err := Parse(tc.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.desc, err)
			continue
		}
		if u.Scheme != tc.scheme {
			t.Errorf("%s: scheme = %q, want %q", tc.desc, u.Scheme, tc.scheme)
		}
		if u.Domain != tc.domain {
			t.Errorf("%s: domain = %q, want %q", tc.desc, u.Domain, tc.domain)
		}
		if u.Directory != tc.directory {
			t.Errorf("%s: directory = %q, want %q", tc.desc, u.Directory, tc.directory)
		}
		if u.File != tc.file {
			t.Errorf("%s: file = %q, want %q", tc.desc, u.File, tc.file)
		}
		if u.Query != tc.query {
			t.Errorf("%s: query = %q, want %q", tc.desc, u.Query, tc.query)
		}
	}
}

func TestParse_Failures(t *testing.T) {
	for _, input := range []string{"", "   ", "http://%zz%"} {
		if _, err := Parse(input); !errors.Is(err, ErrParse) {
			t.Errorf("Parse(%q): expected ErrParse, got %v", input, err)
		}
	}
}

func TestIsIPLiteral(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"http://192.168.1.1/login.php", true},
		{"https://8.8.8.8", true},
		{"http://999.1.1.1/x", true}, // regex fallback
		{"http://[2001:db8::1]/x", true},
		{"https://www.google.com", false},
		{"http://192.168.1.example.com", false},
	}

	for _, tc := range tests {
		u, err := Parse(tc.input)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tc.input, err)
		}
		if got := u.IsIPLiteral(); got != tc.want {
			t.Errorf("IsIPLiteral(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
