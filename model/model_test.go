package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hosford42/pyramids/scoring"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeTestModel lays out a small but complete model on disk and returns
// the config file path.
func writeTestModel(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "model.yml"), `
tokenizer:
  type: standard
properties:
  default_restriction: sentence
  top_level: [statement, question]
  any_promoted: [negative]
  all_promoted: [plural]
  inheritance_files: [properties.prp]
grammar:
  definition_files: [grammar.gmr]
  suffix_files: [suffixes.sfx]
  special_words_files: [special.swd]
  name_cases: [title_case]
scoring:
  score_file: scores.tsv
`)
	writeFile(t, filepath.Join(dir, "grammar.gmr"), `
S:
    NP <agent *VP

NP:
    *DET N
`)
	writeFile(t, filepath.Join(dir, "suffixes.sfx"), "V(past): + ed\n")
	writeFile(t, filepath.Join(dir, "special.swd"), "PRON: he she it\n")
	writeFile(t, filepath.Join(dir, "properties.prp"),
		"N(plural): countable -singular\n")
	writeFile(t, filepath.Join(dir, "word_sets", "DET.ctg"), "a\nthe\n")
	writeFile(t, filepath.Join(dir, "word_sets", "N(countable).ctg"), "dog\ncat\n")
	return filepath.Join(dir, "model.yml")
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yml")
	writeFile(t, path, "grammar:\n  definition_files: [grammar.gmr]\n")
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.Tokenizer.Type != "standard" {
		t.Errorf("default tokenizer type: %q", config.Tokenizer.Type)
	}
	if !config.DiscardSpaces() {
		t.Error("spaces should be discarded by default")
	}
	if config.Properties.DefaultRestriction != "sentence" {
		t.Errorf("default restriction: %q", config.Properties.DefaultRestriction)
	}
	want := filepath.Join(dir, "grammar.gmr")
	if config.Grammar.DefinitionFiles[0] != want {
		t.Errorf("definition file not resolved: %q", config.Grammar.DefinitionFiles[0])
	}
	if config.Grammar.WordSetsFolders[0] != filepath.Join(dir, "word_sets") {
		t.Errorf("word sets folder: %q", config.Grammar.WordSetsFolders[0])
	}
}

func TestLoadModel(t *testing.T) {
	configPath := writeTestModel(t)
	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(nil)
	m, err := loader.LoadModel(config)
	if err != nil {
		t.Fatal(err)
	}

	if got := len(m.BranchRules()); got != 2 {
		t.Errorf("branch rules: %d", got)
	}
	// Two word sets plus the special words file.
	if got := len(m.PrimaryLeafRules()); got != 3 {
		t.Errorf("primary leaf rules: %d", got)
	}
	// One suffix file plus one name case rule.
	if got := len(m.SecondaryLeafRules()); got != 2 {
		t.Errorf("secondary leaf rules: %d", got)
	}
	if m.DefaultRestriction().String() != "sentence" {
		t.Errorf("default restriction: %s", m.DefaultRestriction())
	}
	registry := loader.Registry()
	if !m.AnyPromotedProperties().Contains(registry.Property("negative")) {
		t.Error("negative should be any-promoted")
	}
	if !m.AllPromotedProperties().Contains(registry.Property("plural")) {
		t.Error("plural should be all-promoted")
	}

	labels := m.LinkLabels()
	if len(labels) != 1 || labels[0] != registry.LinkLabel("agent") {
		t.Errorf("link labels: %v", labels)
	}
	positions := m.SequenceRulesByLink(registry.LinkLabel("agent"))
	if len(positions) != 1 || positions[0].Index != 0 {
		t.Fatalf("agent link positions: %v", positions)
	}

	// A matching word set rule recognizes its tokens case-insensitively.
	var matched bool
	for _, rule := range m.PrimaryLeafRules() {
		if rule.Match("the") {
			matched = true
			if rule.Category().Name() != registry.Name("DET") {
				t.Errorf("wrong category for 'the': %s", rule.Category())
			}
		}
	}
	if !matched {
		t.Error("no leaf rule matched 'the'")
	}

	// A missing score file is created on first load.
	if _, err := os.Stat(config.Scoring.ScoreFile); err != nil {
		t.Errorf("score file not created: %v", err)
	}
}

func TestExtendProperties(t *testing.T) {
	configPath := writeTestModel(t)
	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(nil)
	m, err := loader.LoadModel(config)
	if err != nil {
		t.Fatal(err)
	}
	registry := loader.Registry()

	category := registry.MustCategory("N", []string{"plural"}, nil)
	extended := m.ExtendProperties(category)
	if !extended.HasProperties(registry.Property("countable")) {
		t.Error("countable should have been inherited")
	}
	if !extended.LacksProperties(registry.Property("singular")) {
		t.Error("singular should have been denied")
	}

	// A category the pattern does not contain is untouched.
	other := registry.MustCategory("V", []string{"plural"}, nil)
	if !m.ExtendProperties(other).Equal(other) {
		t.Error("inheritance applied to the wrong name")
	}
}

func TestExtendPropertiesAssertionsWin(t *testing.T) {
	loader := NewLoader(nil)
	registry := loader.Registry()
	parser := loader.Parser()
	const text = "N(plural): -countable\nN(mass): countable\n"
	inherit, err := parser.ParsePropertyInheritanceFile(strings.NewReader(text), "t.prp")
	if err != nil {
		t.Fatal(err)
	}
	m := New(Settings{Registry: registry, InheritanceRules: inherit})

	category := registry.MustCategory("N", []string{"plural", "mass"}, nil)
	extended := m.ExtendProperties(category)
	if !extended.HasProperties(registry.Property("countable")) {
		t.Error("asserted countable should win over the denial")
	}
}

func TestScoringMeasuresRoundTrip(t *testing.T) {
	configPath := writeTestModel(t)
	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(nil)
	m, err := loader.LoadModel(config)
	if err != nil {
		t.Fatal(err)
	}

	rule := m.BranchRules()[0]
	feature := scoring.Feature("head spelling:S:runs")
	if err := rule.Tracker().Set(feature,
		scoring.Measure{Score: 0.75, Accuracy: 0.5, Count: 3}); err != nil {
		t.Fatal(err)
	}
	if err := rule.Tracker().Set("",
		scoring.Measure{Score: 0.25, Accuracy: 0.125, Count: 7}); err != nil {
		t.Fatal(err)
	}
	if err := loader.SaveScoringMeasures(m, config.Scoring.ScoreFile); err != nil {
		t.Fatal(err)
	}

	// Reload the whole model and confirm the measures come back.
	fresh := NewLoader(nil)
	m2, err := fresh.LoadModel(config)
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, candidate := range m2.BranchRules() {
		if candidate.String() != rule.String() {
			continue
		}
		found = true
		got := candidate.Tracker().Get(feature)
		if got.Score != 0.75 || got.Accuracy != 0.5 || got.Count != 3 {
			t.Errorf("feature measure not restored: %+v", got)
		}
		fallback := candidate.Tracker().Default()
		if fallback.Score != 0.25 || fallback.Count != 7 {
			t.Errorf("default measure not restored: %+v", fallback)
		}
	}
	if !found {
		t.Fatalf("rule %s not reloaded", rule)
	}
}

func TestStandardizeWordSetFile(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(nil)

	// Non-canonical name with unsorted duplicated words.
	path := filepath.Join(dir, "N( countable).ctg")
	writeFile(t, path, "dog\ncat\ndog\n")
	if err := loader.StandardizeWordSetFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("non-canonical file should have been renamed")
	}
	data, err := os.ReadFile(filepath.Join(dir, "N(countable).ctg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cat\ndog\n" {
		t.Errorf("standardized contents: %q", string(data))
	}

	// A file whose name is not a category expression is rejected.
	bad := filepath.Join(dir, "N(countable,).ctg")
	writeFile(t, bad, "fish\n")
	if err := loader.StandardizeWordSetFile(bad); err == nil {
		t.Fatal("trailing comma should be rejected")
	}
}

func TestAddAndRemoveWords(t *testing.T) {
	configPath := writeTestModel(t)
	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(nil)
	registry := loader.Registry()
	category := registry.MustCategory("DET", nil, nil)

	added, err := loader.AddWords(config, category, []string{"an", "the"})
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 || added[0] != "an" {
		t.Errorf("added words: %v", added)
	}

	removed, err := loader.RemoveWords(config, category, []string{"an", "some"})
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 || removed[0] != "an" {
		t.Errorf("removed words: %v", removed)
	}

	path, err := loader.FindWordSetPath(config, category)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a\nthe\n" {
		t.Errorf("word set after add/remove: %q", string(data))
	}
}

func TestAllRulesDeterministic(t *testing.T) {
	configPath := writeTestModel(t)
	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(nil)
	m, err := loader.LoadModel(config)
	if err != nil {
		t.Fatal(err)
	}
	all := m.AllRules()
	if len(all) != 7 {
		t.Fatalf("rule count: %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].String() > all[i].String() {
			t.Errorf("rules out of order at %d: %s > %s", i, all[i-1], all[i])
		}
	}
}
