package syncer

import "git.home.luguber.info/inful/metasync/internal/license"

// Context is the read-only metadata snapshot a sync run works from.
type Context interface {
	// HasTarget reports whether the target key is registered for syncing.
	HasTarget(key string) bool
	// PathSource resolves a target key to its file path.
	PathSource(key string) string
	// Source looks up a free-form source field such as "status" or "maintainers".
	Source(field string) (string, bool)
	// Manifest looks up a structured manifest field such as "homepage".
	Manifest(field string) (string, bool)
	// Lookup resolves a dotted path in the raw manifest.
	Lookup(dotted string) (any, bool)
	// Deps maps dependency names to version constraints.
	Deps() map[string]string
	// BuildSysReqs maps build-system requirements to version constraints.
	BuildSysReqs() map[string]string
	Version() string
	Description() string
	License() license.License
	DryRun() bool
	// BackUp preserves the current content of path before it is overwritten.
	BackUp(path string) error
}

// Logger is the diagnostic sink used by the engine. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}
