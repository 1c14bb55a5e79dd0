package config

import (
	"crypto/sha256"
	"strings"
	"testing"
)

func TestParseValidEntries(t *testing.T) {
	src := `# comment line
1:out:vpn1:secretA:F:1500
2:in:vpn1:secretA  # trailing comment
`
	entries, err := parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	want := sha256.Sum256([]byte("secretA"))
	if entries[0].Key != want {
		t.Fatalf("key mismatch")
	}
	if entries[1].MTU != 1500 {
		t.Fatalf("default MTU = %d, want 1500", entries[1].MTU)
	}
}

func TestParseRejectsDuplicateQueue(t *testing.T) {
	src := "1:out:a:secret\n1:in:b:secret2\n"
	if _, err := parse(strings.NewReader(src)); err == nil {
		t.Fatal("expected error for duplicate queue number")
	}
}

func TestParseRejectsBadDirection(t *testing.T) {
	src := "1:sideways:a:secret\n"
	if _, err := parse(strings.NewReader(src)); err == nil {
		t.Fatal("expected error for invalid direction")
	}
}

func TestParseRejectsOutOfRangeMTU(t *testing.T) {
	src := "1:out:a:secret:F:100\n"
	if _, err := parse(strings.NewReader(src)); err == nil {
		t.Fatal("expected error for out-of-range MTU")
	}
}

func TestParseSkipsBlankAndCommentOnlyLines(t *testing.T) {
	src := "\n   \n# just a comment\n1:out:a:secret\n"
	entries, err := parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}
