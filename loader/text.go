package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/poiesic/studyops/core"
)

// TextLoader loads plain text and markdown files.
type TextLoader struct{}

var _ Loader = TextLoader{}

// Load reads the whole file. A byte order mark selects UTF-8 or UTF-16
// decoding; without one the bytes are taken as UTF-8. Invalid sequences are
// dropped rather than failing the load.
func (TextLoader) Load(path string) (*core.Document, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDocumentLoad, err)
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrDocumentLoad, err)
	}

	text, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", core.ErrDocumentLoad, path, err)
	}

	return &core.Document{
		DocID:    core.StableID(resolved),
		Text:     text,
		Metadata: baseMetadata(path, resolved),
	}, nil
}

func decodeText(raw []byte) (string, error) {
	dec := unicode.BOMOverride(encoding.Nop.NewDecoder())
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), dec))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(decoded), ""), nil
}
