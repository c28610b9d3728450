// Package selector evaluates a rule's selector expressions against a
// parsed HTML document: plain CSS selection, attribute/text extraction,
// the meta[name] special case, pipe-joined fallbacks, and a trailing
// regex-replace suffix.
package selector

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const textLiteral = "text"

// Validate compiles every CSS alternative in expr (splitting on "|" and
// stripping any "@attr"/"##regex##replacement" suffix first) and returns
// the first compile error. Rule loading (rule.Normalize) does not call it.
func Validate(expr string) error {
	for _, alt := range splitAlternatives(expr) {
		css, _, _, _ := parseAlternative(alt)
		if css == "" || css == textLiteral {
			continue
		}
		if _, err := cascadia.Compile(css); err != nil {
			return err
		}
	}
	return nil
}

// Eval evaluates expr against sel, returning the first non-empty result
// among pipe-joined alternatives.
func Eval(sel *goquery.Selection, expr string) string {
	for _, alt := range splitAlternatives(expr) {
		css, attr, pattern, replacement := parseAlternative(alt)
		val := evalOne(sel, css, attr)
		if pattern != "" {
			val = applyRegex(val, pattern, replacement)
		}
		val = normalizeWhitespace(val)
		if val != "" {
			return val
		}
	}
	return ""
}

// EvalContent evaluates expr against sel like Eval, but for multi-paragraph
// body text: each candidate is rendered with block-level elements (p, div,
// br, li, headings, ...) turned into "\n" boundaries rather than collapsed
// to a single space, so callers that split on "\n" (assemble.WriteTXT,
// assemble.wrapHTML) see one line per paragraph instead of the whole
// chapter run together.
func EvalContent(sel *goquery.Selection, expr string) string {
	for _, alt := range splitAlternatives(expr) {
		css, _, pattern, replacement := parseAlternative(alt)
		val := blockText(sel, css)
		if pattern != "" {
			val = applyRegex(val, pattern, replacement)
		}
		val = normalizeParagraphs(val)
		if val != "" {
			return val
		}
	}
	return ""
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "article": true, "section": true,
	"header": true, "footer": true, "table": true, "ul": true, "ol": true,
}

func blockText(sel *goquery.Selection, css string) string {
	target := sel
	if css != "" {
		target = sel.Find(css)
		if target.Length() == 0 {
			if sel.Is(css) {
				target = sel
			} else {
				return ""
			}
		}
	}
	var b strings.Builder
	target.Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			writeBlockText(&b, n)
		}
	})
	return b.String()
}

func writeBlockText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeBlockText(b, c)
		}
		if blockElements[n.Data] {
			b.WriteString("\n")
		}
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeBlockText(b, c)
		}
	}
}

var (
	blankRun = regexp.MustCompile(`\n{3,}`)
	spaceRun = regexp.MustCompile(`[ \t]+`)
)

// normalizeParagraphs trims and collapses intra-line whitespace on each
// line, then collapses runs of 3+ newlines down to a single blank line
// (two newlines), mirroring the original parsers' \n{3,} -> \n\n cleanup.
func normalizeParagraphs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankRun.ReplaceAllString(s, "\n\n"))
}

// EvalNodes returns the node list matched by the first CSS alternative
// (ignoring any attribute/text/regex suffix) that selects at least one
// node. Used by the TOC and search list selectors, which operate on
// node lists rather than scalar values.
func EvalNodes(doc *goquery.Selection, expr string) *goquery.Selection {
	for _, alt := range splitAlternatives(expr) {
		css, _, _, _ := parseAlternative(alt)
		if css == "" {
			continue
		}
		found := doc.Find(css)
		if found.Length() > 0 {
			return found
		}
	}
	return doc.Find("nomatch-sentinel-selector")
}

func evalOne(sel *goquery.Selection, css, attr string) string {
	target := sel
	if css != "" {
		target = sel.Find(css)
		if target.Length() == 0 {
			// allow the selector to match the node itself, not just descendants
			if sel.Is(css) {
				target = sel
			} else {
				return ""
			}
		}
	}

	if attr == textLiteral || attr == "" {
		return target.First().Text()
	}
	v, _ := target.First().Attr(attr)
	return v
}

// parseAlternative splits one "|"-alternative into its CSS selector,
// optional attribute suffix ("@attr" or the literal "text"), and an
// optional trailing "##regex##replacement" pair.
func parseAlternative(alt string) (css, attr, pattern, replacement string) {
	alt = strings.TrimSpace(alt)

	if idx := strings.Index(alt, "##"); idx >= 0 {
		rest := alt[idx+2:]
		alt = alt[:idx]
		if end := strings.Index(rest, "##"); end >= 0 {
			pattern = rest[:end]
			replacement = rest[end+2:]
		} else {
			pattern = rest
		}
	}

	if alt == textLiteral {
		return "", textLiteral, pattern, replacement
	}

	if idx := strings.LastIndex(alt, "@"); idx >= 0 && idx < len(alt)-1 {
		css = alt[:idx]
		attr = alt[idx+1:]
		return css, attr, pattern, replacement
	}

	// meta[name="X"] implicitly extracts the content attribute
	if strings.HasPrefix(strings.TrimSpace(alt), "meta") {
		return alt, "content", pattern, replacement
	}

	return alt, textLiteral, pattern, replacement
}

func splitAlternatives(expr string) []string {
	parts := strings.Split(expr, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyRegex(val, pattern, replacement string) string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return val
	}
	return re.ReplaceAllString(val, replacement)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
