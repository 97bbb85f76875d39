package workspace

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bazelment/claude-sdk-go/sdkerrors"
)

// Config is the optional on-disk configuration for a Workspace: the same
// AllowedTools/Model defaults SetAllowedTools/SetModel set programmatically,
// loaded from a ".ccsdk.yaml" file at the workspace root instead.
type Config struct {
	AllowedTools []string `yaml:"allowed_tools"`
	Model        string   `yaml:"model"`
}

// DefaultConfigName is the file LoadConfig looks for under a workspace root.
const DefaultConfigName = ".ccsdk.yaml"

// LoadConfig reads "<root>/.ccsdk.yaml". A missing file is not an error: it
// returns a zero-value Config, so ApplyConfig becomes a no-op.
func LoadConfig(root string) (*Config, error) {
	path := filepath.Join(root, DefaultConfigName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.IO, "failed to read workspace config", err).WithPath(path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.Parse, "malformed workspace config", err).WithPath(path)
	}
	return &cfg, nil
}

// ApplyConfig layers cfg's non-empty fields onto w as its new defaults,
// the same values SetAllowedTools/SetModel would set directly.
func (w *Workspace) ApplyConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if len(cfg.AllowedTools) > 0 {
		w.SetAllowedTools(cfg.AllowedTools)
	}
	if cfg.Model != "" {
		w.SetModel(cfg.Model)
	}
}
