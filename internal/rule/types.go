package rule

// Rule is the immutable, canonical description of one book source, as
// produced by Normalize. Nothing downstream ever sees the loosely typed
// ingestion shape.
type Rule struct {
	ID       int
	Name     string
	BaseURL  string
	Enabled  bool
	Encoding string // default "UTF-8"

	Search  SearchRule
	Book    BookRule
	TOC     TOCRule
	Chapter ChapterRule

	Timeouts Timeouts
}

// Timeouts carries per-operation default timeouts, following the
// original source's per-endpoint timeout defaults (search/book 8s,
// toc 10s, chapter 8s) rather than one global constant.
type Timeouts struct {
	Search  int // seconds
	Detail  int
	TOC     int
	Chapter int
}

// SearchRule describes how to query a source and parse its result list.
type SearchRule struct {
	URLTemplate     string // contains "{keyword}"
	Method          string // GET or POST
	BodyTemplate    string
	ListSelector    string
	TitleSelector   string
	AuthorSelector  string
	LinkSelector    string
	LatestSelector  string
}

// BookRule describes how to parse a novel's detail page.
type BookRule struct {
	TitleSelector    string
	AuthorSelector   string
	IntroSelector    string
	CoverSelector    string
	CategorySelector string
	StatusSelector   string
}

// TOCRule describes how to parse a novel's chapter table of contents.
type TOCRule struct {
	ListSelector     string // may be pipe-joined fallback list
	TitleExtractor   string // selector, or literal "text"
	URLExtractor     string // selector, or literal "href"
	HasPages         bool
	NextPageSelector string
	URLTransformFrom string // regex
	URLTransformTo   string // replacement template
}

// ChapterRule describes how to fetch and clean a chapter body.
type ChapterRule struct {
	TitleSelector    string
	ContentSelector  string
	AdPatterns       []string // regexes removed from the rendered text
	RemoveSelectors  []string // DOM nodes stripped before text extraction
}

// HasURLTransform reports whether this TOC rule rewrites discovered URLs.
func (t TOCRule) HasURLTransform() bool {
	return t.URLTransformFrom != ""
}
