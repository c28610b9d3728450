package toc

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/novelforge/novelcore/internal/domain"
)

// noisePatterns match titles that are navigation chrome rather than real
// chapters — "back", "next page", "table of contents", a bare digit, or
// punctuation-only strings.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^第$`),
	regexp.MustCompile(`^章$`),
	regexp.MustCompile(`目录`),
	regexp.MustCompile(`返回`),
	regexp.MustCompile(`上一页`),
	regexp.MustCompile(`下一页`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^[[:punct:]\s]+$`),
}

// numberPatterns extract a leading chapter number in descending order of
// specificity; the first one that matches wins.
var numberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`第\s*(\d+)\s*章`),
	regexp.MustCompile(`^(\d+)[.、]`),
	regexp.MustCompile(`卷\s*(\d+)`),
}

const titleSimilarityThreshold = 0.9

// Normalize turns a source's raw, possibly noisy and duplicate-laden TOC
// scrape into the canonical, contiguously ordered chapter list. It is a
// pure function: no I/O, no mutation of raw.
func Normalize(raw []RawEntry) ([]domain.Chapter, error) {
	entries := dropInvalid(raw)
	entries = dropNoise(entries)
	entries = dedupeByURL(entries)
	entries = dedupeByNumber(entries)
	entries = dedupeBySimilarity(entries)

	if len(entries) == 0 {
		return nil, domain.ErrTOCEmpty
	}

	sortEntries(entries)

	chapters := make([]domain.Chapter, len(entries))
	for i, e := range entries {
		chapters[i] = domain.Chapter{Order: i + 1, Title: e.title, URL: e.url}
	}
	return chapters, nil
}

type entry struct {
	title      string
	url        string
	number     int
	hasNumber  bool
	origIndex  int
}

func dropInvalid(raw []RawEntry) []entry {
	out := make([]entry, 0, len(raw))
	for i, r := range raw {
		title := strings.TrimSpace(r.Title)
		url := strings.TrimSpace(r.URL)
		if title == "" || url == "" {
			continue
		}
		n, hasNumber := extractNumber(title)
		out = append(out, entry{title: title, url: url, number: n, hasNumber: hasNumber, origIndex: i})
	}
	return out
}

func dropNoise(entries []entry) []entry {
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		if isNoise(e.title) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func isNoise(title string) bool {
	for _, re := range noisePatterns {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

func extractNumber(title string) (int, bool) {
	for _, re := range numberPatterns {
		m := re.FindStringSubmatch(title)
		if len(m) == 2 {
			n := 0
			for _, c := range m[1] {
				n = n*10 + int(c-'0')
			}
			return n, true
		}
	}
	return 0, false
}

// canonicalScore ranks how "canonical" a title is when breaking a
// collision: having a detected number beats not having one, then longer
// titles beat shorter ones, then fewer non-word characters beats more.
func canonicalScore(e entry) (hasNumber int, length int, wordiness int) {
	if e.hasNumber {
		hasNumber = 1
	}
	length = len([]rune(e.title))
	for _, r := range e.title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			wordiness++
		}
	}
	return
}

// moreCanonical reports whether a beats b under canonicalScore's ordering.
func moreCanonical(a, b entry) bool {
	an, al, aw := canonicalScore(a)
	bn, bl, bw := canonicalScore(b)
	if an != bn {
		return an > bn
	}
	if al != bl {
		return al > bl
	}
	return aw > bw
}

func dedupeByURL(entries []entry) []entry {
	best := make(map[string]entry)
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		key := e.url
		cur, ok := best[key]
		if !ok {
			best[key] = e
			order = append(order, key)
			continue
		}
		if moreCanonical(e, cur) {
			best[key] = e
		}
	}
	out := make([]entry, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

func dedupeByNumber(entries []entry) []entry {
	best := make(map[int]entry)
	var order []int
	var unnumbered []entry
	for _, e := range entries {
		if !e.hasNumber {
			unnumbered = append(unnumbered, e)
			continue
		}
		cur, ok := best[e.number]
		if !ok {
			best[e.number] = e
			order = append(order, e.number)
			continue
		}
		if moreCanonical(e, cur) {
			best[e.number] = e
		}
	}
	out := make([]entry, 0, len(order)+len(unnumbered))
	for _, n := range order {
		out = append(out, best[n])
	}
	out = append(out, unnumbered...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].origIndex < out[j].origIndex })
	return out
}

func dedupeBySimilarity(entries []entry) []entry {
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		dup := false
		for _, kept := range out {
			if titleSimilarity(e.title, kept.title) >= titleSimilarityThreshold {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

func titleSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	longer := len([]rune(a))
	if bl := len([]rune(b)); bl > longer {
		longer = bl
	}
	if longer == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(longer)
}

// sortEntries orders primarily by detected chapter number ascending;
// entries without a detectable number keep their original relative order
// and sort after any numbered entries, matching sort.Stable semantics on
// a comparator that treats "no number" as +infinity.
func sortEntries(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.hasNumber && b.hasNumber {
			return a.number < b.number
		}
		if a.hasNumber != b.hasNumber {
			return a.hasNumber
		}
		return a.origIndex < b.origIndex
	})
}
