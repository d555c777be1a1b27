package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Target", KeyTarget, "recipe", Target("recipe")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Rule", KeyRule, "prefix", Rule("prefix")},
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Manifest", KeyManifest, "pyproject.toml", Manifest("pyproject.toml")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & bool helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Lines(5); v.Key != KeyLines || v.Value.Int64() != 5 {
		t.Fatalf("Lines mismatch: %v", v)
	}
	if v := Width(88); v.Key != KeyWidth || v.Value.Int64() != 88 {
		t.Fatalf("Width mismatch: %v", v)
	}
	if v := DryRun(true); v.Key != KeyDryRun || !v.Value.Bool() {
		t.Fatalf("DryRun mismatch: %v", v)
	}
	if v := DurationMS(12.5); v.Key != KeyDuration {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
