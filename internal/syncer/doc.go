// Package syncer rewrites generated metadata files so they agree with the
// project manifest.
//
// Every target is treated as line-oriented text. A target is patched by an
// ordered list of substitution rules where the first matching rule replaces
// the whole line; unmatched lines pass through untouched. The conda recipe is
// additionally truncated at its "about:" section, which is then rebuilt from
// the manifest.
//
// The engine never parses the manifest itself. It reads a Context snapshot
// supplied by the caller and reports through an injected Logger.
package syncer
