package rule

import (
	"fmt"
	"strings"

	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/utils"
)

const (
	defaultSearchTimeout  = 8
	defaultDetailTimeout  = 8
	defaultTOCTimeout     = 10
	defaultChapterTimeout = 8
	maxTOCPages           = 50
)

// Normalize folds a Raw ingestion record into the canonical Rule schema,
// rewriting legacy field aliases and the historical "%s" keyword
// placeholder, and rejects rules that cannot be normalized.
func Normalize(r Raw) (*Rule, error) {
	if r.ID <= 0 {
		return nil, domain.NewValidationError("id", "must be > 0")
	}

	baseURL := firstNonEmpty(r.BaseURL, r.URL)
	if !utils.IsHTTPURL(baseURL) {
		return nil, domain.NewValidationError("baseUrl", "must be an absolute URL")
	}

	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}

	encoding := strings.TrimSpace(r.Encoding)
	if encoding == "" {
		encoding = "UTF-8"
	}

	name := r.Name
	if name == "" {
		name = fmt.Sprintf("source-%d", r.ID)
	}

	searchURLTemplate := rewriteKeywordPlaceholder(firstNonEmpty(r.Search.URLTemplate, r.Search.URL))
	listSelector := firstNonEmpty(r.Search.ListSelector, r.Search.Result, r.Search.List)

	method := strings.ToUpper(r.Search.Method)
	if method == "" {
		method = "GET"
	}
	if method != "GET" && method != "POST" {
		return nil, domain.NewValidationError("search.method", "must be GET or POST")
	}

	search := SearchRule{
		URLTemplate:    searchURLTemplate,
		Method:         method,
		BodyTemplate:   rewriteKeywordPlaceholder(r.Search.BodyTemplate),
		ListSelector:   listSelector,
		TitleSelector:  r.Search.TitleSelector,
		AuthorSelector: r.Search.AuthorSelector,
		LinkSelector:   r.Search.LinkSelector,
		LatestSelector: r.Search.LatestSelector,
	}
	if search.URLTemplate != "" {
		if !strings.Contains(search.URLTemplate, "{keyword}") {
			return nil, domain.NewValidationError("search.urlTemplate", "must contain {keyword}")
		}
		if listSelector == "" {
			return nil, domain.NewValidationError("search.listSelector", "must not be empty when search is configured")
		}
	}

	book := BookRule{
		TitleSelector:    r.Book.TitleSelector,
		AuthorSelector:   r.Book.AuthorSelector,
		IntroSelector:    r.Book.IntroSelector,
		CoverSelector:    r.Book.CoverSelector,
		CategorySelector: r.Book.CategorySelector,
		StatusSelector:   r.Book.StatusSelector,
	}

	var urlFrom, urlTo string
	if r.TOC.URLTransform != nil {
		urlFrom, urlTo = r.TOC.URLTransform.From, r.TOC.URLTransform.To
	}
	toc := TOCRule{
		ListSelector:     r.TOC.ListSelector,
		TitleExtractor:   firstNonEmpty(r.TOC.TitleExtractor, "text"),
		URLExtractor:     firstNonEmpty(r.TOC.URLExtractor, "href"),
		HasPages:         r.TOC.HasPages,
		NextPageSelector: r.TOC.NextPageSelector,
		URLTransformFrom: urlFrom,
		URLTransformTo:   urlTo,
	}
	if toc.ListSelector == "" {
		return nil, domain.NewValidationError("toc.listSelector", "must not be empty")
	}
	if toc.HasPages && toc.NextPageSelector == "" {
		return nil, domain.NewValidationError("toc.nextPageSelector", "required when hasPages is true")
	}

	chapter := ChapterRule{
		TitleSelector:   r.Chapter.TitleSelector,
		ContentSelector: r.Chapter.ContentSelector,
		AdPatterns:      r.Chapter.AdPatterns,
		RemoveSelectors: r.Chapter.RemoveSelectors,
	}
	if chapter.ContentSelector == "" {
		return nil, domain.NewValidationError("chapter.contentSelector", "must not be empty")
	}

	return &Rule{
		ID:       r.ID,
		Name:     name,
		BaseURL:  baseURL,
		Enabled:  enabled,
		Encoding: encoding,
		Search:   search,
		Book:     book,
		TOC:      toc,
		Chapter:  chapter,
		Timeouts: Timeouts{
			Search:  defaultSearchTimeout,
			Detail:  defaultDetailTimeout,
			TOC:     defaultTOCTimeout,
			Chapter: defaultChapterTimeout,
		},
	}, nil
}

// rewriteKeywordPlaceholder rewrites the historical "%s" placeholder to
// "{keyword}" for backward compatibility with older rule exports.
func rewriteKeywordPlaceholder(s string) string {
	if s == "" {
		return s
	}
	return strings.ReplaceAll(s, "%s", "{keyword}")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// MaxTOCPagesDefault is the bounded page count the Source Adapter's TOC
// paginator will iterate before giving up.
const MaxTOCPagesDefault = maxTOCPages
