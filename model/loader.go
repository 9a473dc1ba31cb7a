package model

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/grammar"
	"github.com/hosford42/pyramids/rules"
	"github.com/hosford42/pyramids/scoring"
	"github.com/hosford42/pyramids/tokenization"
)

// Loader builds compiled models from configuration and grammar files, and
// persists their scoring measures.
type Loader struct {
	logger   *slog.Logger
	registry *categorization.Registry
	parser   *grammar.Parser
}

// NewLoader creates a loader with a fresh symbol registry. A nil logger
// disables progress logging.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := categorization.NewRegistry()
	return &Loader{
		logger:   logger,
		registry: registry,
		parser:   grammar.NewParser(registry),
	}
}

// Registry returns the symbol registry models built by this loader share.
func (l *Loader) Registry() *categorization.Registry { return l.registry }

// Parser returns the loader's grammar parser.
func (l *Loader) Parser() *grammar.Parser { return l.parser }

// LoadModel builds a compiled model from the configuration.
func (l *Loader) LoadModel(config *Config) (*Model, error) {
	l.logger.Info("loading model", "config", config.Path())

	tokenizer, err := tokenization.NewTokenizer(config.Tokenizer.Type, config.DiscardSpaces())
	if err != nil {
		return nil, err
	}

	var inheritanceRules []*rules.InheritanceRule
	for _, path := range config.Properties.InheritanceFiles {
		fileRules, err := l.LoadPropertyInheritanceFile(path)
		if err != nil {
			return nil, err
		}
		inheritanceRules = append(inheritanceRules, fileRules...)
	}

	var branchRules []*rules.SequenceRule
	for _, path := range config.Grammar.DefinitionFiles {
		fileRules, err := l.LoadGrammarDefinitionFile(path)
		if err != nil {
			return nil, err
		}
		branchRules = append(branchRules, fileRules...)
	}

	var primaryLeafRules, secondaryLeafRules []rules.LeafRule
	for _, folder := range config.Grammar.WordSetsFolders {
		folderRules, err := l.LoadWordSetsFolder(folder)
		if err != nil {
			return nil, err
		}
		for _, rule := range folderRules {
			primaryLeafRules = append(primaryLeafRules, rule)
		}
	}
	for _, path := range config.Grammar.SuffixFiles {
		fileRules, err := l.LoadSuffixFile(path)
		if err != nil {
			return nil, err
		}
		for _, rule := range fileRules {
			secondaryLeafRules = append(secondaryLeafRules, rule)
		}
	}
	for _, path := range config.Grammar.SpecialWordsFiles {
		fileRules, err := l.LoadSpecialWordsFile(path)
		if err != nil {
			return nil, err
		}
		for _, rule := range fileRules {
			primaryLeafRules = append(primaryLeafRules, rule)
		}
	}
	nameCategory := l.registry.MustCategory("name", nil, nil)
	for _, caseName := range config.Grammar.NameCases {
		caseRule, err := rules.NewCaseRule(nameCategory, caseName)
		if err != nil {
			return nil, err
		}
		secondaryLeafRules = append(secondaryLeafRules, caseRule)
	}

	restriction, err := l.parser.ParseCategory(config.Properties.DefaultRestriction)
	if err != nil {
		return nil, err
	}

	m := New(Settings{
		Registry:           l.registry,
		DefaultRestriction: restriction,
		TopLevelProperties: l.registry.PropertySet(config.Properties.TopLevel...),
		PrimaryLeafRules:   primaryLeafRules,
		SecondaryLeafRules: secondaryLeafRules,
		BranchRules:        branchRules,
		Tokenizer:          tokenizer,
		AnyPromoted:        l.registry.PropertySet(config.Properties.AnyPromoted...),
		AllPromoted:        l.registry.PropertySet(config.Properties.AllPromoted...),
		InheritanceRules:   inheritanceRules,
		Config:             config,
	})

	if config.Scoring.ScoreFile != "" {
		if _, err := os.Stat(config.Scoring.ScoreFile); err == nil {
			if err := l.LoadScoringMeasures(m, config.Scoring.ScoreFile); err != nil {
				return nil, err
			}
		} else if err := l.SaveScoringMeasures(m, config.Scoring.ScoreFile); err != nil {
			return nil, err
		}
	}

	l.logger.Info("model loaded",
		"branch_rules", len(branchRules),
		"primary_leaf_rules", len(primaryLeafRules),
		"secondary_leaf_rules", len(secondaryLeafRules))
	return m, nil
}

// LoadGrammarDefinitionFile parses one grammar definition file.
func (l *Loader) LoadGrammarDefinitionFile(path string) ([]*rules.SequenceRule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening grammar definition %s", path)
	}
	defer file.Close()
	return l.parser.ParseGrammarDefinition(file, path)
}

// LoadSuffixFile parses one suffix file.
func (l *Loader) LoadSuffixFile(path string) ([]*rules.SuffixRule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening suffix file %s", path)
	}
	defer file.Close()
	return l.parser.ParseSuffixFile(file, path)
}

// LoadSpecialWordsFile parses one special words file.
func (l *Loader) LoadSpecialWordsFile(path string) ([]*rules.SetRule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening special words file %s", path)
	}
	defer file.Close()
	return l.parser.ParseSpecialWordsFile(file, path)
}

// LoadPropertyInheritanceFile parses one property inheritance file.
func (l *Loader) LoadPropertyInheritanceFile(path string) ([]*rules.InheritanceRule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening property inheritance file %s", path)
	}
	defer file.Close()
	return l.parser.ParsePropertyInheritanceFile(file, path)
}

// LoadWordSet loads a word set file as a set rule. The file name, without
// its extension, is the category expression the words belong to.
func (l *Loader) LoadWordSet(path string) (*rules.SetRule, error) {
	base := filepath.Base(path)
	definition := strings.TrimSuffix(base, filepath.Ext(base))
	category, err := l.parser.ParseCategory(definition)
	if err != nil {
		return nil, errors.Wrapf(err, "badly named word set file %s", path)
	}
	l.logger.Debug("loading word set", "category", category.String(), "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading word set %s", path)
	}
	return rules.NewSetRule(category, strings.Fields(string(data)), path), nil
}

// LoadWordSetsFolder loads every .ctg file in the folder as a set rule.
func (l *Loader) LoadWordSetsFolder(folder string) ([]*rules.SetRule, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, errors.Wrapf(err, "reading word sets folder %s", folder)
	}
	var leafRules []*rules.SetRule
	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(filepath.Ext(entry.Name())) != ".ctg" {
			l.logger.Debug("skipping non-word-set file", "name", entry.Name())
			continue
		}
		rule, err := l.LoadWordSet(filepath.Join(folder, entry.Name()))
		if err != nil {
			return nil, err
		}
		leafRules = append(leafRules, rule)
	}
	return leafRules, nil
}

// LoadScoringMeasures reads persisted scoring measures and assigns them to
// the model's rules. Each line holds a rule string, a feature (empty for
// the rule's default measure), and the score, accuracy and count fields,
// tab separated.
func (l *Loader) LoadScoringMeasures(m *Model, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening score file %s", path)
	}
	defer file.Close()

	measures := map[string]map[scoring.Feature]scoring.Measure{}
	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			return errors.Errorf("%s:%d: expected 5 fields, got %d", path, lineNumber,
				len(fields))
		}
		score, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return errors.Wrapf(err, "%s:%d: bad score", path, lineNumber)
		}
		accuracy, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return errors.Wrapf(err, "%s:%d: bad accuracy", path, lineNumber)
		}
		count, err := strconv.Atoi(fields[4])
		if err != nil {
			return errors.Wrapf(err, "%s:%d: bad count", path, lineNumber)
		}
		if measures[fields[0]] == nil {
			measures[fields[0]] = map[scoring.Feature]scoring.Measure{}
		}
		measures[fields[0]][scoring.Feature(fields[1])] = scoring.Measure{
			Score:    score,
			Accuracy: accuracy,
			Count:    count,
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "reading score file %s", path)
	}

	for _, rule := range m.AllRules() {
		ruleMeasures, ok := measures[rule.String()]
		if !ok {
			continue
		}
		for feature, measure := range ruleMeasures {
			if err := rule.Tracker().Set(feature, measure); err != nil {
				return errors.Wrapf(err, "score file %s: rule %s", path, rule)
			}
		}
	}
	return nil
}

// SaveScoringMeasures writes the model's scoring measures out, one line
// per rule and feature.
func (l *Loader) SaveScoringMeasures(m *Model, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating score file %s", path)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, rule := range m.AllRules() {
		tracker := rule.Tracker()
		writeMeasure := func(feature scoring.Feature, measure scoring.Measure) error {
			if measure.Count == 0 {
				return nil
			}
			_, err := fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\n",
				rule.String(), feature,
				strconv.FormatFloat(measure.Score, 'g', -1, 64),
				strconv.FormatFloat(measure.Accuracy, 'g', -1, 64),
				measure.Count)
			return err
		}
		if err := writeMeasure("", tracker.Default()); err != nil {
			return errors.Wrapf(err, "writing score file %s", path)
		}
		for _, feature := range tracker.Features() {
			if err := writeMeasure(feature, tracker.Get(feature)); err != nil {
				return errors.Wrapf(err, "writing score file %s", path)
			}
		}
	}
	if err := writer.Flush(); err != nil {
		return errors.Wrapf(err, "writing score file %s", path)
	}
	return nil
}

// StandardizeWordSetFile rewrites a word set file with its words
// deduplicated and sorted, and renames the file to the canonical rendering
// of its category.
func (l *Loader) StandardizeWordSetFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading word set %s", path)
	}
	unique := map[string]bool{}
	for _, word := range strings.Fields(string(data)) {
		unique[word] = true
	}
	words := make([]string, 0, len(unique))
	for word := range unique {
		words = append(words, word)
	}
	sort.Strings(words)
	standardized := strings.Join(words, "\n")
	if standardized != strings.TrimRight(string(data), "\n") {
		if err := os.WriteFile(path, []byte(standardized+"\n"), 0o644); err != nil {
			return errors.Wrapf(err, "writing word set %s", path)
		}
	}

	base := filepath.Base(path)
	category, err := l.parser.ParseCategory(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return errors.Wrapf(err, "badly named word set file %s", path)
	}
	canonical := category.String() + ".ctg"
	if canonical != base {
		target := filepath.Join(filepath.Dir(path), canonical)
		if err := os.Rename(path, target); err != nil {
			return errors.Wrapf(err, "renaming word set %s", path)
		}
	}
	return nil
}

// StandardizeWordSetsFolder standardizes every .ctg file in the folder.
func (l *Loader) StandardizeWordSetsFolder(folder string) error {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return errors.Wrapf(err, "reading word sets folder %s", folder)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ctg") {
			continue
		}
		if err := l.StandardizeWordSetFile(filepath.Join(folder, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// StandardizeModel standardizes every word sets folder of the model.
func (l *Loader) StandardizeModel(config *Config) error {
	for _, folder := range config.Grammar.WordSetsFolders {
		if err := l.StandardizeWordSetsFolder(folder); err != nil {
			return err
		}
	}
	return nil
}

// FindWordSetPath locates the word set file for a category, or the path
// where one should be created.
func (l *Loader) FindWordSetPath(config *Config,
	category categorization.Category) (string, error) {
	for _, folder := range config.Grammar.WordSetsFolders {
		entries, err := os.ReadDir(folder)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasSuffix(strings.ToLower(name), ".ctg") {
				continue
			}
			fileCategory, err := l.parser.ParseCategory(name[:len(name)-4])
			if err != nil {
				continue
			}
			if fileCategory.Equal(category) {
				return filepath.Join(folder, name), nil
			}
		}
	}
	for _, folder := range config.Grammar.WordSetsFolders {
		return filepath.Join(folder, category.String()+".ctg"), nil
	}
	return "", errors.New("no word sets folder configured")
}

// AddWords adds words to the word set file for the category, returning the
// words that were actually new.
func (l *Loader) AddWords(config *Config, category categorization.Category,
	words []string) ([]string, error) {
	path, err := l.FindWordSetPath(config, category)
	if err != nil {
		return nil, err
	}
	known := map[string]bool{}
	if data, err := os.ReadFile(path); err == nil {
		for _, word := range strings.Fields(string(data)) {
			known[word] = true
		}
	}
	var added []string
	for _, word := range words {
		if !known[word] {
			known[word] = true
			added = append(added, word)
		}
	}
	if len(added) == 0 {
		return nil, nil
	}
	all := make([]string, 0, len(known))
	for word := range known {
		all = append(all, word)
	}
	sort.Strings(all)
	if err := os.WriteFile(path, []byte(strings.Join(all, "\n")+"\n"), 0o644); err != nil {
		return nil, errors.Wrapf(err, "writing word set %s", path)
	}
	sort.Strings(added)
	return added, nil
}

// RemoveWords removes words from the word set file for the category,
// returning the words that were actually present.
func (l *Loader) RemoveWords(config *Config, category categorization.Category,
	words []string) ([]string, error) {
	path, err := l.FindWordSetPath(config, category)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	known := map[string]bool{}
	for _, word := range strings.Fields(string(data)) {
		known[word] = true
	}
	var removed []string
	for _, word := range words {
		if known[word] {
			delete(known, word)
			removed = append(removed, word)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	remaining := make([]string, 0, len(known))
	for word := range known {
		remaining = append(remaining, word)
	}
	sort.Strings(remaining)
	if err := os.WriteFile(path, []byte(strings.Join(remaining, "\n")+"\n"), 0o644); err != nil {
		return nil, errors.Wrapf(err, "writing word set %s", path)
	}
	sort.Strings(removed)
	return removed, nil
}
