package assemble

import (
	"bufio"
	"os"

	"github.com/novelforge/novelcore/internal/domain"
)

// WriteTXT concatenates chapters in order as "title\n\ncontent\n\n" into
// outPath.
func WriteTXT(chapters []domain.Chapter, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, ch := range chapters {
		if _, err := w.WriteString(ch.Title); err != nil {
			return err
		}
		if _, err := w.WriteString("\n\n"); err != nil {
			return err
		}
		if _, err := w.WriteString(ch.Content); err != nil {
			return err
		}
		if _, err := w.WriteString("\n\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
