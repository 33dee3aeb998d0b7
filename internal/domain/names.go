package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeName folds a human-typed channel name into the lookup key used by
// channel_map and the negative cache. A Caser is not safe for concurrent use,
// so one is built per call.
func NormalizeName(name string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}
