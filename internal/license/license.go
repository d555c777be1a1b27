// Package license defines the closed set of licenses a manifest may declare.
package license

import (
	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/foundation/normalization"
)

// License is one member of a fixed set. The zero value is Unknown.
type License int

const (
	Unknown License = iota
	Apache2
	CC0
	CCBy
	CCByNC
	GPL2
	GPL3
	LGPL
	MIT
	MPL2
)

type attributes struct {
	name   string
	spdx   string
	family string
	url    string
}

// family values follow the conda-forge license_family vocabulary.
var table = map[License]attributes{
	Apache2: {"apache2", "Apache-2.0", "APACHE", "https://www.apache.org/licenses/LICENSE-2.0"},
	CC0:     {"cc0", "CC0-1.0", "PUBLIC-DOMAIN", "https://creativecommons.org/publicdomain/zero/1.0/"},
	CCBy:    {"ccby", "CC-BY-4.0", "OTHER", "https://creativecommons.org/licenses/by/4.0/"},
	CCByNC:  {"ccbync", "CC-BY-NC-4.0", "OTHER", "https://creativecommons.org/licenses/by-nc/4.0/"},
	GPL2:    {"gpl2", "GPL-2.0-or-later", "GPL2", "https://www.gnu.org/licenses/old-licenses/gpl-2.0.html"},
	GPL3:    {"gpl3", "GPL-3.0-or-later", "GPL3", "https://www.gnu.org/licenses/gpl-3.0.html"},
	LGPL:    {"lgpl", "LGPL-3.0-or-later", "LGPL", "https://www.gnu.org/licenses/lgpl-3.0.html"},
	MIT:     {"mit", "MIT", "MIT", "https://opensource.org/licenses/MIT"},
	MPL2:    {"mpl2", "MPL-2.0", "MOZILLA", "https://www.mozilla.org/en-US/MPL/2.0/"},
}

var lookup = func() *normalization.Normalizer[License] {
	values := map[string]License{
		"GPL-2.0":  GPL2,
		"GPL-3.0":  GPL3,
		"LGPL-3.0": LGPL,
	}
	for l, a := range table {
		values[a.name] = l
		values[a.spdx] = l
	}
	return normalization.WithCustomNormalizer(values, Unknown, normalization.Alphanumeric)
}()

// Parse resolves a license by key ("apache2") or SPDX identifier ("Apache-2.0"),
// ignoring case and punctuation.
func Parse(s string) (License, error) {
	l, err := lookup.NormalizeWithError(s)
	if err != nil {
		return Unknown, errors.WrapError(err, errors.CategoryManifest, "unknown license").
			WithContext("license", s).
			Build()
	}
	return l, nil
}

// All returns every known license in declaration order.
func All() []License {
	return []License{Apache2, CC0, CCBy, CCByNC, GPL2, GPL3, LGPL, MIT, MPL2}
}

func (l License) Name() string   { return table[l].name }
func (l License) SPDX() string   { return table[l].spdx }
func (l License) Family() string { return table[l].family }
func (l License) URL() string    { return table[l].url }

func (l License) String() string {
	if l == Unknown {
		return "unknown"
	}
	return table[l].spdx
}
