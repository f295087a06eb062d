package envconf

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

type nestedConf struct {
	Path string `env:"TEST_NESTED_PATH,optional"`
}

type testConf struct {
	Name     string        `env:"TEST_NAME"`
	Port     uint16        `env:"TEST_PORT"`
	Debug    bool          `env:"TEST_DEBUG,optional"`
	Timeout  time.Duration `env:"TEST_TIMEOUT,optional"`
	LogLevel slog.Level    `env:"TEST_LOG_LEVEL,optional"`
	Nested   nestedConf
	skipped  string //nolint:unused // unexported fields are ignored
}

func TestLoad_RequiredAndTypes(t *testing.T) {
	t.Setenv("TEST_NAME", "currency")
	t.Setenv("TEST_PORT", "8080")
	t.Setenv("TEST_DEBUG", "true")
	t.Setenv("TEST_TIMEOUT", "1m30s")
	t.Setenv("TEST_LOG_LEVEL", "WARN")
	t.Setenv("TEST_NESTED_PATH", "/tmp/db.sqlite")

	cfg := new(testConf)

	err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Name != "currency" || cfg.Port != 8080 || !cfg.Debug {
		t.Fatalf("scalar fields: %+v", cfg)
	}
	if cfg.Timeout != 90*time.Second {
		t.Fatalf("duration: %v", cfg.Timeout)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Fatalf("log level: %v", cfg.LogLevel)
	}
	if cfg.Nested.Path != "/tmp/db.sqlite" {
		t.Fatalf("nested: %+v", cfg.Nested)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("TEST_PORT", "8080")
	// TEST_NAME deliberately unset.

	err := Load(new(testConf))
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got: %v", err)
	}
}

func TestLoad_OptionalKeepsZeroValue(t *testing.T) {
	t.Setenv("TEST_NAME", "currency")
	t.Setenv("TEST_PORT", "8080")
	// All optional vars unset.

	cfg := new(testConf)

	err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Debug || cfg.Timeout != 0 || cfg.Nested.Path != "" {
		t.Fatalf("optional fields not zero: %+v", cfg)
	}
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("TEST_NAME", "currency")
	t.Setenv("TEST_PORT", "not-a-number")

	err := Load(new(testConf))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_RejectsNonStructPointers(t *testing.T) {
	t.Parallel()

	if err := Load(nil); err == nil {
		t.Fatal("nil destination accepted")
	}

	var s string
	if err := Load(&s); err == nil {
		t.Fatal("non-struct destination accepted")
	}
}
