package config

import (
	"flag"
	"io"
	"strings"
	"testing"

	"gitlab.com/stephen-fox/gmpatch/resource"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, name := range []string{EnvPID, EnvProcess, EnvBuild, EnvArena, EnvVerbose, EnvNoSecondary, EnvNoExternal} {
		t.Setenv(name, "")
	}

	cfg := FromEnv()

	if cfg.PID != 0 || cfg.Process != DefaultProcess || cfg.Build != resource.BuildDFC279c {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	if cfg.Verbose || cfg.NoSecondary || cfg.NoExternal || cfg.Arena != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParse_FlagsOverrideEnv(t *testing.T) {
	t.Setenv(EnvPID, "1234")
	t.Setenv(EnvArena, "0x10000000:1m")
	t.Setenv(EnvVerbose, "true")

	cfg, err := Parse(newFlagSet(), []string{"-p", "99", "-no-secondary", "list"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.PID != 99 {
		t.Fatalf("expected pid 99 - got %d", cfg.PID)
	}

	if cfg.Arena != "0x10000000:1m" || !cfg.Verbose || !cfg.NoSecondary {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if cfg.Logger() == nil {
		t.Fatal("expected a logger when verbose")
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := [][]string{
		{"-a", "not-a-range"},
		{"-b", "dfc-0.0.1"},
		{"-p", "-1"},
		{"-p", "0", "-n", ""},
	}

	for _, args := range cases {
		_, err := Parse(newFlagSet(), args)
		if err == nil {
			t.Fatalf("expected an error for %q", args)
		}
	}
}

func TestConfig_Anchors(t *testing.T) {
	cfg := Config{Process: DefaultProcess, Build: resource.BuildDFC279c}

	anchors, err := cfg.Anchors()
	if err != nil {
		t.Fatal(err)
	}

	if _, hasIt := anchors.Lookup(resource.AnchorGameID); !hasIt {
		t.Fatal("expected the game id anchor")
	}
}

func TestUsage(t *testing.T) {
	var b strings.Builder
	Usage(&b)

	if !strings.Contains(b.String(), EnvArena) {
		t.Fatalf("expected usage to mention %s - got %q", EnvArena, b.String())
	}
}
