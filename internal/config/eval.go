package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical evaluation defaults file.
const DefaultConfigPath = "config/eval.defaults.json"

// Legacy cache policies control how snapshots written before the scale-grid
// fix (format version 1) are treated.
const (
	LegacyCacheRecompute = "recompute"
	LegacyCacheAccept    = "accept"
)

// EvalConfig represents the evaluation settings. Every field is optional;
// the Get* methods supply defaults for fields left out of the JSON file.
type EvalConfig struct {
	// Root folder holding {dataset}/gtFiles and {dataset}/timesFiles.
	GroundtruthRoot *string `json:"groundtruth_root,omitempty"`

	// Maximum timestamp difference when associating estimate and groundtruth.
	AssociationTolerance *float64 `json:"association_tolerance,omitempty"`

	// Number of (iteration, sequence) cells evaluated concurrently.
	CellWorkers *int `json:"cell_workers,omitempty"`

	// Number of runs evaluated concurrently by EvaluateAll.
	RunWorkers *int `json:"run_workers,omitempty"`

	LegacyCachePolicy *string `json:"legacy_cache_policy,omitempty"`

	// Path to the sqlite result store; empty disables recording.
	ResultsDB *string `json:"results_db,omitempty"`

	ScaleFileName *string `json:"scale_file_name,omitempty"`
}

// EmptyEvalConfig returns an EvalConfig with all fields set to nil.
func EmptyEvalConfig() *EvalConfig {
	return &EvalConfig{}
}

// LoadEvalConfig loads an EvalConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadEvalConfig(path string) (*EvalConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEvalConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded; intended for test setup.
func MustLoadDefaultConfig() *EvalConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/<tool>/ subpackages
	}
	for _, path := range candidates {
		if cfg, err := LoadEvalConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *EvalConfig) Validate() error {
	if c.AssociationTolerance != nil && *c.AssociationTolerance <= 0 {
		return fmt.Errorf("association_tolerance must be positive, got %f", *c.AssociationTolerance)
	}
	if c.CellWorkers != nil && *c.CellWorkers < 1 {
		return fmt.Errorf("cell_workers must be at least 1, got %d", *c.CellWorkers)
	}
	if c.RunWorkers != nil && *c.RunWorkers < 1 {
		return fmt.Errorf("run_workers must be at least 1, got %d", *c.RunWorkers)
	}
	if c.LegacyCachePolicy != nil {
		switch *c.LegacyCachePolicy {
		case LegacyCacheRecompute, LegacyCacheAccept:
		default:
			return fmt.Errorf("legacy_cache_policy must be %q or %q, got %q",
				LegacyCacheRecompute, LegacyCacheAccept, *c.LegacyCachePolicy)
		}
	}
	if c.ScaleFileName != nil && (*c.ScaleFileName == "" || filepath.Base(*c.ScaleFileName) != *c.ScaleFileName) {
		return fmt.Errorf("scale_file_name must be a bare file name, got %q", *c.ScaleFileName)
	}
	return nil
}

// GetGroundtruthRoot returns the groundtruth_root value or the default.
func (c *EvalConfig) GetGroundtruthRoot() string {
	if c.GroundtruthRoot == nil || *c.GroundtruthRoot == "" {
		return "groundtruth"
	}
	return *c.GroundtruthRoot
}

// GetAssociationTolerance returns the association_tolerance value or the default.
func (c *EvalConfig) GetAssociationTolerance() float64 {
	if c.AssociationTolerance == nil {
		return 0.05
	}
	return *c.AssociationTolerance
}

// GetCellWorkers returns the cell_workers value or the default.
func (c *EvalConfig) GetCellWorkers() int {
	if c.CellWorkers == nil {
		return 1 // synchronous
	}
	return *c.CellWorkers
}

// GetRunWorkers returns the run_workers value or the default.
func (c *EvalConfig) GetRunWorkers() int {
	if c.RunWorkers == nil {
		return 4
	}
	return *c.RunWorkers
}

// GetLegacyCachePolicy returns the legacy_cache_policy value or the default.
func (c *EvalConfig) GetLegacyCachePolicy() string {
	if c.LegacyCachePolicy == nil {
		return LegacyCacheRecompute
	}
	return *c.LegacyCachePolicy
}

// GetResultsDB returns the results_db path, empty when recording is off.
func (c *EvalConfig) GetResultsDB() string {
	if c.ResultsDB == nil {
		return ""
	}
	return *c.ResultsDB
}

// GetScaleFileName returns the scale_file_name value or the default.
func (c *EvalConfig) GetScaleFileName() string {
	if c.ScaleFileName == nil {
		return "scalesdso.txt"
	}
	return *c.ScaleFileName
}
