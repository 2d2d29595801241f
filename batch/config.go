package batch

import (
	"runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
)

// Config is a batch run, as read from an HCL file such as:
//
//	results_dir  = "results/2024-05"
//	db           = "scalars.db"
//	workers      = 4
//	deck_pattern = "*.dck"
//	skip         = ["failed-run"]
type Config struct {
	ResultsDir  string   `hcl:"results_dir,optional"`
	DbPathName  string   `hcl:"db,optional"`           // empty keeps the scalar table in memory
	Workers     int      `hcl:"workers,optional"`      // <= 0 means runtime.NumCPU()
	DeckPattern string   `hcl:"deck_pattern,optional"` // filepath.Match pattern on file names
	Skip        []string `hcl:"skip,optional"`         // simulation folder names to leave out
}

// DefaultDeckPattern matches the deck files of a simulation folder.
const DefaultDeckPattern = "*.dck"

// LoadConfig parses and decodes the HCL config file at filePath.
func LoadConfig(filePath string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filePath)
	return decodeConfig(file, diags, filePath)
}

// ParseConfig parses and decodes HCL config text; filename is only used in error messages.
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	return decodeConfig(file, diags, filename)
}

func decodeConfig(file *hcl.File, diags hcl.Diagnostics, filename string) (*Config, error) {
	if diags.HasErrors() {
		return nil, errors.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}

	cfg := &Config{}
	diags = gohcl.DecodeBody(file.Body, nil, cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("failed to decode HCL file %s: %s", filename, diags.Error())
	}
	return cfg, nil
}

// withDefaults returns a copy of cfg with unset fields filled in.
func (cfg Config) withDefaults() Config {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.DeckPattern == "" {
		cfg.DeckPattern = DefaultDeckPattern
	}
	return cfg
}

func (cfg *Config) skips(simName string) bool {
	for _, name := range cfg.Skip {
		if name == simName {
			return true
		}
	}
	return false
}
