package core

import (
	"testing"

	"pgregory.net/rapid"
)

// Identity resolution is a pure function: the same descriptor always maps to
// the same 16-char lowercase hex identity, on any input.
func TestIdentityDeterminismProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 ./_-]{1,80}`).Draw(t, "text")
		kind := rapid.SampledFrom([]SourceKind{SourcePath, SourcePrompt}).Draw(t, "kind")

		desc := SourceDescriptor{Kind: kind, Value: text}
		first, err1 := ResolveIdentity(desc)
		second, err2 := ResolveIdentity(desc)

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("nondeterministic error: %v vs %v", err1, err2)
		}
		if err1 != nil {
			return
		}
		if first != second {
			t.Fatalf("identity changed between calls: %s vs %s", first, second)
		}
		if len(first) != 16 {
			t.Fatalf("expected 16 chars, got %d: %s", len(first), first)
		}
		for _, c := range first {
			if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
				t.Fatalf("non-hex character %q in identity %s", c, first)
			}
		}
	})
}
