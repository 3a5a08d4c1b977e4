// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package tracking

import (
	"regexp"
	"strings"

	"github.com/reiver/go-porterstemmer"

	"github.com/tomtom215/shopranker/internal/logging"
)

// maxTerms bounds what one search query can contribute to a profile.
const maxTerms = 16

var wordPattern = regexp.MustCompile(`[\pL\pN]+`)

// stopwords carry no product intent.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"of": true, "in": true, "on": true, "at": true, "for": true, "to": true,
	"by": true, "with": true, "from": true, "is": true, "are": true, "it": true,
	"my": true, "your": true, "me": true, "i": true, "we": true, "new": true,
	"buy": true, "cheap": true, "best": true, "sale": true, "under": true,
}

// Terms tokenises a search query into lower-cased Porter stems. Stopwords and
// single characters are dropped, duplicates keep their first position.
func Terms(query string) []string {
	words := wordPattern.FindAllString(strings.ToLower(query), -1)
	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		if len([]rune(w)) < 2 || stopwords[w] {
			continue
		}
		stem := stemWord(w)
		if stem == "" || seen[stem] {
			continue
		}
		seen[stem] = true
		out = append(out, stem)
		if len(out) == maxTerms {
			break
		}
	}
	return out
}

// stemWord returns the Porter stem of w, or w itself when the stemmer panics.
// porterstemmer indexes out of range on some short words such as "eed".
func stemWord(w string) (stem string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Debug().Str("word", w).Interface("panic", r).Msg("stemmer failed, keeping word")
			stem = w
		}
	}()
	return porterstemmer.StemString(w)
}
