package tokenization

import "testing"

func TestStandardTokenizer(t *testing.T) {
	tok := NewStandardTokenizer(true)
	seq := tok.Tokenize("The dogs don't bark.")
	want := []string{"The", "dogs", "don't", "bark", "."}
	if seq.Len() != len(want) {
		t.Fatalf("expected %d tokens, got %d: %s", len(want), seq.Len(), seq)
	}
	for i, spelling := range want {
		if seq.Token(i) != spelling {
			t.Errorf("token %d: expected %q, got %q", i, spelling, seq.Token(i))
		}
	}
	// Spans point back into the original text.
	text := "The dogs don't bark."
	for i := 0; i < seq.Len(); i++ {
		span := seq.Span(i)
		if text[span.Start:span.End] != seq.Token(i) {
			t.Errorf("token %d span mismatch: %q vs %q",
				i, text[span.Start:span.End], seq.Token(i))
		}
	}
}

func TestKeepSpaces(t *testing.T) {
	tok := NewStandardTokenizer(false)
	seq := tok.Tokenize("a b")
	if seq.Len() != 3 {
		t.Fatalf("expected 3 tokens with spaces kept, got %d", seq.Len())
	}
	if seq.Token(1) != " " {
		t.Errorf("expected space token, got %q", seq.Token(1))
	}
}

func TestPoolInterning(t *testing.T) {
	tok := NewStandardTokenizer(true)
	tok.Tokenize("the cat saw the dog")
	tok.Tokenize("the dog saw the cat")
	if tok.pool.Size() != 4 {
		t.Fatalf("expected 4 distinct spellings in the pool, got %d", tok.pool.Size())
	}
}

func TestNewTokenizer(t *testing.T) {
	if _, err := NewTokenizer("standard", true); err != nil {
		t.Fatal(err)
	}
	if _, err := NewTokenizer("", true); err != nil {
		t.Fatal(err)
	}
	if _, err := NewTokenizer("nope", true); err == nil {
		t.Fatal("unknown tokenizer type must be rejected")
	}
}
