package main

import (
	"errors"
	"testing"

	labelmerge "github.com/alnah/go-labelmerge"
)

// ---------------------------------------------------------------------------
// TestLoadConfig - YAML config loading
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("explicit path", func(t *testing.T) {
		t.Parallel()
		path := writeTemp(t, "batch.yaml", `
template: 58x30
variant: two-column
organization: ООО Ромашка
numbering: sequential
separate: true
fields:
  name: true
  brand: true
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Template != "58x30" || cfg.Variant != "two-column" {
			t.Errorf("config = %+v", cfg)
		}
		if cfg.Organization != "ООО Ромашка" || !cfg.Separate {
			t.Errorf("config = %+v", cfg)
		}
		if !cfg.Fields.Brand {
			t.Errorf("fields = %+v", cfg.Fields)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig("/nonexistent/dir/batch.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		t.Parallel()
		path := writeTemp(t, "bad.yaml", "template: 58x40\nbogus_key: 1\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unresolvable name", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig("definitely-not-a-config-name")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestGenerateConfig - File and flag merging
// ---------------------------------------------------------------------------

func TestGenerateConfig(t *testing.T) {
	t.Parallel()

	t.Run("flags win over file values", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Template = "58x30"
		cfg.Organization = "From File"

		flags := &cliFlags{template: "43x25", organization: "From Flag"}
		gc := generateConfig(cfg, flags)
		if gc.Template != "43x25" || gc.Organization != "From Flag" {
			t.Errorf("merged = %+v", gc)
		}
	})

	t.Run("file values survive unset flags", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Numbering = labelmerge.NumberingSequential
		cfg.Demo = true

		gc := generateConfig(cfg, &cliFlags{})
		if gc.Numbering != labelmerge.NumberingSequential || !gc.DemoWatermark {
			t.Errorf("merged = %+v", gc)
		}
	})

	t.Run("preflight-only implies preflight", func(t *testing.T) {
		t.Parallel()
		gc := generateConfig(DefaultConfig(), &cliFlags{preflightOnly: true})
		if !gc.RunPreflight {
			t.Errorf("RunPreflight = false with --preflight-only")
		}
	})

	t.Run("default merges to a valid engine config", func(t *testing.T) {
		t.Parallel()
		gc := generateConfig(DefaultConfig(), &cliFlags{})
		if err := gc.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})
}
