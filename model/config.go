// Package model defines the compiled parser model: the rule sets, the
// promoted property sets and the tokenizer a parser runs with, plus the
// configuration and loading machinery that builds a model from grammar
// files on disk.
package model

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TokenizerConfig selects and configures the model's tokenizer.
type TokenizerConfig struct {
	Type          string `yaml:"type"`
	DiscardSpaces *bool  `yaml:"discard_spaces"`
}

// PropertiesConfig names the property-level settings of the model.
type PropertiesConfig struct {
	DefaultRestriction string   `yaml:"default_restriction"`
	TopLevel           []string `yaml:"top_level"`
	AnyPromoted        []string `yaml:"any_promoted"`
	AllPromoted        []string `yaml:"all_promoted"`
	InheritanceFiles   []string `yaml:"inheritance_files"`
}

// GrammarConfig lists the grammar source files of the model.
type GrammarConfig struct {
	DefinitionFiles   []string `yaml:"definition_files"`
	WordSetsFolders   []string `yaml:"word_sets_folders"`
	SuffixFiles       []string `yaml:"suffix_files"`
	SpecialWordsFiles []string `yaml:"special_words_files"`
	NameCases         []string `yaml:"name_cases"`
}

// ScoringConfig locates the persisted scoring measures.
type ScoringConfig struct {
	ScoreFile string `yaml:"score_file"`
}

// BenchmarkingConfig locates the benchmark samples.
type BenchmarkingConfig struct {
	BenchmarkFile string `yaml:"benchmark_file"`
}

// Config is a parser model configuration, loaded from a YAML file. All
// file and folder paths are resolved relative to the config file's
// directory.
type Config struct {
	Tokenizer    TokenizerConfig    `yaml:"tokenizer"`
	Properties   PropertiesConfig   `yaml:"properties"`
	Grammar      GrammarConfig      `yaml:"grammar"`
	Scoring      ScoringConfig      `yaml:"scoring"`
	Benchmarking BenchmarkingConfig `yaml:"benchmarking"`

	path string // the config file the settings came from
}

// Path returns the absolute path of the config file the settings came
// from, or "" for a config built in memory.
func (c *Config) Path() string { return c.path }

// DiscardSpaces reports whether the tokenizer should drop whitespace
// tokens. Defaults to true.
func (c *Config) DiscardSpaces() bool {
	if c.Tokenizer.DiscardSpaces == nil {
		return true
	}
	return *c.Tokenizer.DiscardSpaces
}

// applyDefaults fills in the settings the config file leaves out.
func (c *Config) applyDefaults() {
	if c.Tokenizer.Type == "" {
		c.Tokenizer.Type = "standard"
	}
	if c.Properties.DefaultRestriction == "" {
		c.Properties.DefaultRestriction = "sentence"
	}
	if len(c.Grammar.WordSetsFolders) == 0 {
		c.Grammar.WordSetsFolders = []string{"word_sets"}
	}
}

// resolvePaths rebases every configured path onto the config directory.
func (c *Config) resolvePaths(base string) {
	resolve := func(paths []string) {
		for i, path := range paths {
			if !filepath.IsAbs(path) {
				paths[i] = filepath.Join(base, path)
			}
		}
	}
	resolve(c.Properties.InheritanceFiles)
	resolve(c.Grammar.DefinitionFiles)
	resolve(c.Grammar.WordSetsFolders)
	resolve(c.Grammar.SuffixFiles)
	resolve(c.Grammar.SpecialWordsFiles)
	if c.Scoring.ScoreFile != "" && !filepath.IsAbs(c.Scoring.ScoreFile) {
		c.Scoring.ScoreFile = filepath.Join(base, c.Scoring.ScoreFile)
	}
	if c.Benchmarking.BenchmarkFile != "" && !filepath.IsAbs(c.Benchmarking.BenchmarkFile) {
		c.Benchmarking.BenchmarkFile = filepath.Join(base, c.Benchmarking.BenchmarkFile)
	}
}

// LoadConfig reads a model configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving config path %s", path)
	}
	data, err := os.ReadFile(absolute)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", absolute)
	}
	config := &Config{path: absolute}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", absolute)
	}
	config.applyDefaults()
	config.resolvePaths(filepath.Dir(absolute))
	return config, nil
}
