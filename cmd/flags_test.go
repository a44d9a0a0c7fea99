package cmd

import "testing"

func TestParseReplacements(t *testing.T) {
	out, err := parseReplacements([]string{"FOO=bar", "BAZ=qux=quux"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["FOO"] != "bar" || out["BAZ"] != "qux=quux" {
		t.Fatalf("unexpected map: %v", out)
	}
}

func TestParseReplacements_Invalid(t *testing.T) {
	if _, err := parseReplacements([]string{"noequals"}); err == nil {
		t.Fatal("expected error for missing '='")
	}
}
