// Package search holds the text predicate used by the menu and bakery filters.
package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Contains reports whether query occurs in s, ignoring case. An empty query
// matches everything. Both sides are NFC-normalized first so that composed and
// decomposed accents ("pão") compare equal.
func Contains(s, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(fold(s), fold(query))
}

func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
