package importer

import "strings"

// QuoteIdentifier returns s as a double-quoted SQL identifier, doubling any
// embedded double quotes.
func QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
