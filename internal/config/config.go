// Package config handles runtime configuration and the .agentlens
// directory kept inside the annotation root. The dot directory holds the
// session log and an optional config.yaml with per-project defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/agentlens/internal/annotation"
	"github.com/kingrea/agentlens/internal/imageset"
)

// DotDir is the directory created inside every annotation root.
const DotDir = ".agentlens"

const defaultConfigYAML = `# agentlens project configuration
version: 1

# Grouping policy for the image directory: prefix or pairs.
grouping: prefix

# Choice-count rule for submissions: min4 or exact4.
choice_mode: min4

scoring:
  model: gpt-4o-mini
  question_template: "The following question/proposition has 4 possible answers. You must respond with '1', '2', 'none', or 'both'. If the proposition does not apply to either agent, you should choose 'none'. {}"
  output_dir: scores
`

// ScoringConfig carries defaults for the batch score command.
type ScoringConfig struct {
	Model            string `yaml:"model"`
	Checkpoint       string `yaml:"checkpoint,omitempty"`
	QuestionTemplate string `yaml:"question_template"`
	OutputDir        string `yaml:"output_dir"`
}

// ProjectConfig models .agentlens/config.yaml.
type ProjectConfig struct {
	Version    int                   `yaml:"version"`
	Grouping   imageset.Policy       `yaml:"grouping"`
	ChoiceMode annotation.ChoiceMode `yaml:"choice_mode"`
	Scoring    ScoringConfig         `yaml:"scoring"`
}

// Config holds the resolved runtime configuration for one annotation root.
type Config struct {
	// AnnRoot is the annotation root the user pointed the tool at.
	AnnRoot string

	// DotPath is AnnRoot/.agentlens.
	DotPath string

	Project ProjectConfig
}

// InitDotDir creates the .agentlens structure inside the annotation root
// and seeds a default config.yaml when none exists.
func InitDotDir(annRoot string) error {
	dot := filepath.Join(annRoot, DotDir)
	dirs := []string{
		filepath.Join(dot, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureConfigFile(filepath.Join(dot, "config.yaml"))
}

// New loads the configuration for an annotation root, falling back to
// defaults when no config.yaml is present.
func New(annRoot string) (*Config, error) {
	cfg := &Config{
		AnnRoot: annRoot,
		DotPath: filepath.Join(annRoot, DotDir),
		Project: defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the directory the session logbook writes under.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DotPath, "logs")
}

// ConfigPath returns the on-disk location of the project config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DotPath, "config.yaml")
}

// Grouping returns the configured grouping policy.
func (c *Config) Grouping() imageset.Policy {
	return c.Project.Grouping
}

// ChoiceMode returns the configured choice-count rule.
func (c *Config) ChoiceMode() annotation.ChoiceMode {
	return c.Project.ChoiceMode
}

func (c *Config) loadProjectConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:    1,
		Grouping:   imageset.PolicyPrefix,
		ChoiceMode: annotation.ChoiceMin4,
		Scoring: ScoringConfig{
			Model:            "gpt-4o-mini",
			QuestionTemplate: "The following question/proposition has 4 possible answers. You must respond with '1', '2', 'none', or 'both'. If the proposition does not apply to either agent, you should choose 'none'. {}",
			OutputDir:        "scores",
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	defaults := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = defaults.Version
	}
	if pc.Grouping == "" {
		pc.Grouping = defaults.Grouping
	}
	if pc.ChoiceMode == "" {
		pc.ChoiceMode = defaults.ChoiceMode
	}
	if pc.Scoring.Model == "" {
		pc.Scoring.Model = defaults.Scoring.Model
	}
	if pc.Scoring.QuestionTemplate == "" {
		pc.Scoring.QuestionTemplate = defaults.Scoring.QuestionTemplate
	}
	if pc.Scoring.OutputDir == "" {
		pc.Scoring.OutputDir = defaults.Scoring.OutputDir
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Grouping = imageset.Policy(strings.ToLower(strings.TrimSpace(string(pc.Grouping))))
	pc.ChoiceMode = annotation.ChoiceMode(strings.ToLower(strings.TrimSpace(string(pc.ChoiceMode))))
	pc.Scoring.Model = strings.TrimSpace(pc.Scoring.Model)
	pc.Scoring.Checkpoint = strings.TrimSpace(pc.Scoring.Checkpoint)
	pc.Scoring.OutputDir = strings.TrimSpace(pc.Scoring.OutputDir)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if !pc.Grouping.Valid() {
		return fmt.Errorf("grouping must be %q or %q", imageset.PolicyPrefix, imageset.PolicyPairs)
	}
	if !pc.ChoiceMode.Valid() {
		return fmt.Errorf("choice_mode must be %q or %q", annotation.ChoiceMin4, annotation.ChoiceExact4)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
