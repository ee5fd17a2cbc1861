package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/arbor/pkg/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestTreeConfig_DepthBounds(t *testing.T) {
	for _, depth := range []int{0, 51, -3} {
		cfg := NewDefaultConfig()
		cfg.Tree.MaxDepth = depth
		if err := cfg.Validate(); err == nil {
			t.Errorf("max_depth %d should fail validation", depth)
		}
	}
	cfg := NewDefaultConfig()
	cfg.Tree.MaxDepth = 50
	if err := cfg.Validate(); err != nil {
		t.Errorf("max_depth 50 should pass: %v", err)
	}
}

func TestDatesConfig_Timezone(t *testing.T) {
	cfg := DatesConfig{Timezone: "UTC"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("loc = %v, want UTC", loc)
	}

	bad := DatesConfig{Timezone: "Mars/Olympus"}
	if err := bad.Validate(); err == nil {
		t.Error("unknown timezone should fail validation")
	}
}

func TestInboxConfig_PathRequiredWhenEnabled(t *testing.T) {
	cfg := InboxConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled inbox without path should fail")
	}
	if cfg.ParentID != "root" {
		t.Errorf("parent_id = %q, want root", cfg.ParentID)
	}

	off := InboxConfig{}
	if err := off.Validate(); err != nil {
		t.Errorf("disabled inbox should pass: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Setenv("ARBOR_TEST_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
tree:
  max_depth: 4
inbox:
  enabled: true
  path: /tmp/inbox
  debounce: 250ms
auth:
  mode: token
  token: ${ARBOR_TEST_TOKEN}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.App.HTTP.Port)
	}
	if cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("log level = %v, want DEBUG", cfg.App.LogLevel)
	}
	if cfg.Tree.MaxDepth != 4 || cfg.Tree.Indent != 4 {
		t.Errorf("tree = %+v", cfg.Tree)
	}
	if cfg.Inbox.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %v, want 250ms", cfg.Inbox.Debounce)
	}
	if cfg.Auth.Token != "s3cret" {
		t.Errorf("token = %q, want expanded env value", cfg.Auth.Token)
	}
	if cfg.SQLite.Path != "./arbor.db" {
		t.Errorf("sqlite path = %q, want default kept", cfg.SQLite.Path)
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	cfg := NewDefaultConfig()
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if err := pkgconfig.LoadOptional(missing, cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.Tree.MaxDepth != 10 {
		t.Errorf("max_depth = %d, want default 10", cfg.Tree.MaxDepth)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
