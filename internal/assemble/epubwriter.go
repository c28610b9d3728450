package assemble

import (
	"github.com/bmaupin/go-epub"

	"github.com/novelforge/novelcore/internal/domain"
)

// GoEpubWriter is the concrete domain.EPUBWriter backed by
// github.com/bmaupin/go-epub. It is the only place in this module that
// touches EPUB byte-level encoding.
type GoEpubWriter struct{}

// Write builds an EPUB document from meta and chapters and saves it to
// outPath.
func (GoEpubWriter) Write(meta domain.EPUBMetadata, chapters []domain.EPUBChapter, outPath string) error {
	doc := epub.NewEpub(meta.Title)
	doc.SetAuthor(meta.Author)

	if meta.CoverURL != "" {
		if coverImagePath, err := doc.AddImage(meta.CoverURL, "cover"); err == nil {
			doc.SetCover(coverImagePath, "")
		}
	}

	for _, ch := range chapters {
		if _, err := doc.AddSection(ch.HTML, ch.Title, "", ""); err != nil {
			return err
		}
	}

	return doc.Write(outPath)
}
