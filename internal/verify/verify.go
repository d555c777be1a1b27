// Package verify checks that synced targets are still well-formed documents.
//
// The sync engine edits files line by line without parsing them, so a stray
// edit can leave invalid YAML or JSON behind. These checks run after a sync or
// as part of "metasync check".
package verify

import (
	"encoding/json"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/syncer"
)

var (
	jinjaStatement  = regexp.MustCompile(`\{%.*?%\}`)
	jinjaExpression = regexp.MustCompile(`\{\{.*?\}\}`)
)

// Target checks lines of the given target kind. Targets without a structured
// format pass unchecked.
func Target(key string, lines []string) error {
	switch key {
	case syncer.TargetCitation:
		return Citation(lines)
	case syncer.TargetCodemeta:
		return Codemeta(lines)
	case syncer.TargetRecipe:
		return Recipe(lines)
	default:
		return nil
	}
}

// Citation requires a YAML mapping with version and abstract keys.
func Citation(lines []string) error {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines, "\n")), &doc); err != nil {
		return invalid(syncer.TargetCitation, "citation file is not valid YAML", err)
	}
	for _, key := range []string{"version", "abstract"} {
		if _, ok := doc[key]; !ok {
			return errors.ValidationError("citation file lacks a required key").
				WithContext("target", syncer.TargetCitation).
				WithContext("key", key).
				Build()
		}
	}
	return nil
}

// Codemeta requires a JSON object.
func Codemeta(lines []string) error {
	var doc map[string]any
	if err := json.Unmarshal([]byte(strings.Join(lines, "\n")), &doc); err != nil {
		return invalid(syncer.TargetCodemeta, "codemeta file is not a valid JSON object", err)
	}
	return nil
}

// Recipe requires a YAML mapping with an about section once template tags are
// blanked out.
func Recipe(lines []string) error {
	text := strings.Join(lines, "\n")
	text = jinjaStatement.ReplaceAllString(text, "")
	text = jinjaExpression.ReplaceAllString(text, "placeholder")

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return invalid(syncer.TargetRecipe, "recipe is not valid YAML", err)
	}
	if _, ok := doc["about"]; !ok {
		return errors.ValidationError("recipe lacks an about section").
			WithContext("target", syncer.TargetRecipe).
			Build()
	}
	return nil
}

func invalid(target, message string, err error) error {
	return errors.WrapError(err, errors.CategoryValidation, message).
		WithContext("target", target).
		Build()
}
