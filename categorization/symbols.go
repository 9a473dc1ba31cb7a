// Package categorization implements the symbolic type system used to tag
// parse tree nodes: interned names and properties, and immutable categories
// with set-algebra matching semantics. All grammar rule matching is built on
// the operations defined here, so identity comparison and hashing of symbols
// must stay O(1).
package categorization

import "sync"

// WildcardText is the reserved category name that matches any other name
// during containment checks.
const WildcardText = "_"

// symbol is one canonical instance of a distinct string value. Symbols are
// deduplicated per table, so pointer equality is string equality and the id
// doubles as a stable hash.
type symbol struct {
	id   uint32
	text string
}

// hash mixes the canonical id so that ids 0, 1, 2... don't land in adjacent
// hash buckets. The mix constant is from splitmix64.
func (s *symbol) hash() uint64 {
	return (uint64(s.id) + 1) * 0x9e3779b97f4a7c15
}

// table is a single canonicalizer: a registry mapping raw strings to their
// unique symbol. Lookup-or-insert is serialized; a race inserting two symbols
// for one string would silently break every downstream identity comparison.
type table struct {
	mu      sync.Mutex
	index   map[string]*symbol
	symbols []*symbol
}

func newTable() *table {
	return &table{index: map[string]*symbol{}}
}

// intern returns the canonical symbol for text, creating it on first use.
// Symbols are never evicted; the vocabulary is fixed by the grammar, not by
// the input being parsed.
func (t *table) intern(text string) *symbol {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sym, ok := t.index[text]; ok {
		return sym
	}
	sym := &symbol{id: uint32(len(t.symbols)), text: text}
	t.index[text] = sym
	t.symbols = append(t.symbols, sym)
	return sym
}

func (t *table) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.symbols)
}

// Registry owns the canonicalizers for category names, properties and link
// labels. The three kinds are interned separately and are not
// cross-compatible, even when spelled the same. A process normally shares one
// registry between grammar loading and parsing; tests construct isolated
// registries.
type Registry struct {
	names      *table
	properties *table
	links      *table
	wildcard   Name
}

// NewRegistry creates an empty registry with the wildcard name pre-interned.
func NewRegistry() *Registry {
	r := &Registry{
		names:      newTable(),
		properties: newTable(),
		links:      newTable(),
	}
	r.wildcard = Name{r.names.intern(WildcardText)}
	return r
}

// Name is an interned category name. The zero value is invalid.
type Name struct {
	sym *symbol
}

// Property is an interned symbol representing a single binary
// syntactic/semantic flag, such as "plural". The zero value is invalid.
type Property struct {
	sym *symbol
}

// LinkLabel is an interned label for a semantic link between tokens, such as
// "subject". The zero value is invalid.
type LinkLabel struct {
	sym *symbol
}

// Name returns the canonical Name for text.
func (r *Registry) Name(text string) Name {
	return Name{r.names.intern(text)}
}

// Property returns the canonical Property for text.
func (r *Registry) Property(text string) Property {
	return Property{r.properties.intern(text)}
}

// LinkLabel returns the canonical LinkLabel for text.
func (r *Registry) LinkLabel(text string) LinkLabel {
	return LinkLabel{r.links.intern(text)}
}

// Wildcard returns this registry's reserved wildcard name.
func (r *Registry) Wildcard() Name {
	return r.wildcard
}

// NameCount reports how many distinct names have been interned. Memory growth
// of a registry is monotonic, so this is also its high-water mark.
func (r *Registry) NameCount() int { return r.names.size() }

// PropertyCount reports how many distinct properties have been interned.
func (r *Registry) PropertyCount() int { return r.properties.size() }

func (n Name) String() string { return n.sym.text }

// IsZero reports whether n is the invalid zero value.
func (n Name) IsZero() bool { return n.sym == nil }

// IsWildcard reports whether n is a registry's reserved wildcard name.
func (n Name) IsWildcard() bool { return n.sym != nil && n.sym.text == WildcardText }

func (n Name) hash() uint64 { return n.sym.hash() }

// Compare orders names by their underlying string, with the canonical id as
// a tie-breaker for equal spellings from different registries. Two names from
// the same registry compare equal only when they are the same symbol.
func (n Name) Compare(other Name) int {
	return compareSymbols(n.sym, other.sym)
}

// Less reports whether n sorts before other.
func (n Name) Less(other Name) bool { return n.Compare(other) < 0 }

func (p Property) String() string { return p.sym.text }

// IsZero reports whether p is the invalid zero value.
func (p Property) IsZero() bool { return p.sym == nil }

func (p Property) hash() uint64 { return p.sym.hash() }

// Compare orders properties by their underlying string, see Name.Compare.
func (p Property) Compare(other Property) int {
	return compareSymbols(p.sym, other.sym)
}

// Less reports whether p sorts before other.
func (p Property) Less(other Property) bool { return p.Compare(other) < 0 }

func (l LinkLabel) String() string { return l.sym.text }

// IsZero reports whether l is the invalid zero value.
func (l LinkLabel) IsZero() bool { return l.sym == nil }

// Compare orders link labels by their underlying string, see Name.Compare.
func (l LinkLabel) Compare(other LinkLabel) int {
	return compareSymbols(l.sym, other.sym)
}

// Less reports whether l sorts before other.
func (l LinkLabel) Less(other LinkLabel) bool { return l.Compare(other) < 0 }

func compareSymbols(a, b *symbol) int {
	if a == b {
		return 0
	}
	if a.text < b.text {
		return -1
	}
	if a.text > b.text {
		return 1
	}
	// Same spelling from different registries.
	if a.id < b.id {
		return -1
	}
	if a.id > b.id {
		return 1
	}
	return 0
}
