package aggregator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/novelforge/novelcore/internal/domain"
)

var nonAlnumRun = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// tokenize splits keyword on whitespace and non-alphanumeric runs,
// lowercasing each piece and keeping sub-length-2 tokens only when they
// contain a CJK character (a single CJK character is already a
// meaningful unit, unlike a single Latin letter).
func tokenize(keyword string) []string {
	parts := nonAlnumRun.Split(strings.ToLower(keyword), -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len([]rune(p)) < 2 && !containsCJK(p) {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// score sums per-token weights over a hit's title, author, and latest
// chapter label, per the match table: exact title 100, title-contains
// 50*(tokenLen/titleLen), exact author 30, author-contains 20,
// description/latest-contains 10.
func score(hit domain.NovelHit, tokens []string) float64 {
	title := strings.ToLower(hit.Title)
	author := strings.ToLower(hit.Author)
	latest := strings.ToLower(hit.LatestChapter)

	titleLen := len([]rune(title))

	var total float64
	for _, tok := range tokens {
		tokenLen := float64(len([]rune(tok)))

		switch {
		case title == tok:
			total += 100
		case strings.Contains(title, tok) && titleLen > 0:
			total += 50 * (tokenLen / float64(titleLen))
		}

		switch {
		case author == tok:
			total += 30
		case strings.Contains(author, tok):
			total += 20
		}

		if strings.Contains(latest, tok) {
			total += 10
		}
	}
	return total
}

// normalizeForDedup lowercases, strips punctuation, and collapses
// whitespace — the key the Aggregator dedupes (title, author) pairs on.
func normalizeForDedup(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumRun.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
