package loader

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/poiesic/studyops/core"
)

// ErrPageExtraction is reported to the debug log when a single PDF page
// cannot be extracted. It never fails a load.
var ErrPageExtraction = errors.New("page extraction failed")

// pageSeparator joins the text of consecutive pages.
const pageSeparator = "\n\n"

// PDFLoader extracts text from PDF files page by page.
type PDFLoader struct {
	Logger *slog.Logger
}

var _ Loader = PDFLoader{}

// Load extracts every page's plain text. A page that fails contributes an
// empty string; a file that cannot be parsed at all fails the load.
func (l PDFLoader) Load(path string) (doc *core.Document, err error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDocumentLoad, err)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDocumentLoad, err)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: parse %s: %v", core.ErrDocumentLoad, path, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", core.ErrDocumentLoad, path, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		text, pageErr := extractPage(reader, i)
		if pageErr != nil {
			logger.Debug("pdf page extraction failed", "path", path, "page", i, "err", pageErr)
			continue
		}
		pages[i-1] = text
	}

	metadata := baseMetadata(path, resolved)
	metadata[core.MetaPages] = numPages

	return &core.Document{
		DocID:    core.StableID(resolved),
		Text:     strings.Join(pages, pageSeparator),
		Metadata: metadata,
	}, nil
}

// extractPage returns the plain text of page num (1-based).
func extractPage(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: page %d: %v", ErrPageExtraction, num, r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("%w: page %d: %w", ErrPageExtraction, num, err)
	}
	return text, nil
}
