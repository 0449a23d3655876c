package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	labelmerge "github.com/alnah/go-labelmerge"
	"github.com/alnah/go-labelmerge/internal/fileutil"
	"github.com/alnah/go-labelmerge/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Config mirrors labelmerge.GenerateConfig for YAML files, plus CLI-side
// defaults.
type Config struct {
	Template string `yaml:"template"`
	Variant  string `yaml:"variant"`

	Organization string `yaml:"organization"`
	Registration string `yaml:"registration"`

	Numbering    string `yaml:"numbering"`
	ContinueFrom int    `yaml:"continueFrom"`

	Separate     bool `yaml:"separate"`
	RunPreflight bool `yaml:"preflight"`
	Demo         bool `yaml:"demo"`

	Fields  FieldsConfig `yaml:"fields"`
	Workers int          `yaml:"workers"`
}

// FieldsConfig toggles label fields from YAML.
type FieldsConfig struct {
	Name           bool `yaml:"name"`
	Article        bool `yaml:"article"`
	Size           bool `yaml:"size"`
	Color          bool `yaml:"color"`
	Brand          bool `yaml:"brand"`
	Composition    bool `yaml:"composition"`
	Country        bool `yaml:"country"`
	Manufacturer   bool `yaml:"manufacturer"`
	Importer       bool `yaml:"importer"`
	ProductionDate bool `yaml:"productionDate"`
	Certificate    bool `yaml:"certificate"`
	Address        bool `yaml:"address"`
	Organization   bool `yaml:"organization"`
	Registration   bool `yaml:"registration"`
	EAN            bool `yaml:"ean"`
}

// DefaultConfig mirrors labelmerge.DefaultGenerateConfig.
func DefaultConfig() *Config {
	gc := labelmerge.DefaultGenerateConfig()
	return &Config{
		Template:  gc.Template,
		Variant:   gc.Variant,
		Numbering: gc.Numbering,
		Fields: FieldsConfig{
			Name:         true,
			Article:      true,
			Size:         true,
			Color:        true,
			Organization: true,
			EAN:          true,
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise it's searched in the current directory and the user config
// directory. Returns an error if not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	var configPath string
	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		resolved, err := resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/labelmerge/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	var tried []string

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		tried = append(tried, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "labelmerge", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			tried = append(tried, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %v", ErrConfigNotFound, tried)
}

// generateConfig merges file config and flags into the engine config.
// Flags win over file values.
func generateConfig(cfg *Config, f *cliFlags) labelmerge.GenerateConfig {
	gc := labelmerge.GenerateConfig{
		Template:      cfg.Template,
		Variant:       cfg.Variant,
		Organization:  cfg.Organization,
		Registration:  cfg.Registration,
		Numbering:     cfg.Numbering,
		ContinueFrom:  cfg.ContinueFrom,
		Separate:      cfg.Separate,
		RunPreflight:  cfg.RunPreflight,
		DemoWatermark: cfg.Demo,
		Fields: labelmerge.FieldFlags{
			Name:           cfg.Fields.Name,
			Article:        cfg.Fields.Article,
			Size:           cfg.Fields.Size,
			Color:          cfg.Fields.Color,
			Brand:          cfg.Fields.Brand,
			Composition:    cfg.Fields.Composition,
			Country:        cfg.Fields.Country,
			Manufacturer:   cfg.Fields.Manufacturer,
			Importer:       cfg.Fields.Importer,
			ProductionDate: cfg.Fields.ProductionDate,
			Certificate:    cfg.Fields.Certificate,
			Address:        cfg.Fields.Address,
			Organization:   cfg.Fields.Organization,
			Registration:   cfg.Fields.Registration,
			EAN:            cfg.Fields.EAN,
		},
	}

	if f.template != "" {
		gc.Template = f.template
	}
	if f.variant != "" {
		gc.Variant = f.variant
	}
	if f.numbering != "" {
		gc.Numbering = f.numbering
	}
	if f.continueFrom > 0 {
		gc.ContinueFrom = f.continueFrom
	}
	if f.organization != "" {
		gc.Organization = f.organization
	}
	if f.registration != "" {
		gc.Registration = f.registration
	}
	if f.separate {
		gc.Separate = true
	}
	if f.preflight || f.preflightOnly {
		gc.RunPreflight = true
	}
	if f.force {
		gc.ForceGenerate = true
	}
	if f.demo {
		gc.DemoWatermark = true
	}
	return gc
}
