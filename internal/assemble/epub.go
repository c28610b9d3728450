package assemble

import (
	"fmt"
	"html"
	"strings"

	"github.com/novelforge/novelcore/internal/domain"
)

// WriteEPUB builds a {title, html} manifest from chapters, in order, and
// hands it to writer along with meta. The core never encodes EPUB bytes
// itself — writer is the external seam (see epubwriter.go).
func WriteEPUB(meta domain.EPUBMetadata, chapters []domain.Chapter, outPath string, writer domain.EPUBWriter) error {
	manifest := make([]domain.EPUBChapter, len(chapters))
	for i, ch := range chapters {
		manifest[i] = domain.EPUBChapter{
			Title: ch.Title,
			HTML:  wrapHTML(ch.Title, ch.Content),
		}
	}
	return writer.Write(meta, manifest, outPath)
}

func wrapHTML(title, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))
	for _, para := range strings.Split(content, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(para))
	}
	return b.String()
}
