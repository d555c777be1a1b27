package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTarget   = "target"
	KeyPath     = "path"
	KeyRule     = "rule"
	KeyLines    = "lines"
	KeyRunID    = "run_id"
	KeyDryRun   = "dry_run"
	KeyManifest = "manifest"
	KeyWidth    = "width"
	KeyDuration = "duration_ms"
	KeyError    = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Target(key string) slog.Attr     { return slog.String(KeyTarget, key) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Rule(r string) slog.Attr         { return slog.String(KeyRule, r) }
func Lines(n int) slog.Attr           { return slog.Int(KeyLines, n) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func DryRun(b bool) slog.Attr         { return slog.Bool(KeyDryRun, b) }
func Manifest(p string) slog.Attr     { return slog.String(KeyManifest, p) }
func Width(w int) slog.Attr           { return slog.Int(KeyWidth, w) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDuration, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
