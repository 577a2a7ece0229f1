// Package tokenizer derives lexical keywords from free-text queries and
// provides rough token-count estimates for embedding batch sizing.
package tokenizer

import (
	"strings"
	"unicode"
)

// minKeywordRunes filters out articles, prepositions and other short
// Portuguese function words without a stopword list.
const minKeywordRunes = 4

// Keywords lowercases the query, strips punctuation and returns the words
// long enough to act as lexical search terms, preserving first-seen order
// and dropping duplicates. An empty query yields no keywords.
func Keywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]bool, len(fields))
	var keywords []string
	for _, f := range fields {
		if len([]rune(f)) < minKeywordRunes || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

// CountTokens provides a rough token count estimate, ~4/3 tokens per word.
func CountTokens(text string) int {
	words := strings.Fields(text)
	return max(len(words)*4/3, 1)
}
