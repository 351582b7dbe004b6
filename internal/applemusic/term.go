package applemusic

import (
	"net/url"
	"strings"
)

// Apple matches search terms literally, so separators become spaces rather
// than percent-escapes.
var termSeparators = strings.NewReplacer(",", " ", "&", " ", "=", " ", "/", " ")

// EncodeTerm converts a free-text query into the term parameter value.
// "AC/DC, Back in Black" becomes "AC+DC++Back+in+Black".
func EncodeTerm(term string) string {
	return url.QueryEscape(termSeparators.Replace(term))
}
