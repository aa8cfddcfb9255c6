package core

import (
	"path/filepath"
	"strings"
)

// FileType identifies which loader handles a file.
type FileType int

const (
	// FileTypeUnsupported marks extensions no loader handles.
	FileTypeUnsupported FileType = iota
	// FileTypeText covers plain text and markdown.
	FileTypeText
	// FileTypePDF covers PDF documents.
	FileTypePDF
)

// String returns a short name for the file type.
func (ft FileType) String() string {
	switch ft {
	case FileTypeText:
		return "text"
	case FileTypePDF:
		return "pdf"
	default:
		return "unsupported"
	}
}

var extFileTypes = map[string]FileType{
	".md":  FileTypeText,
	".txt": FileTypeText,
	".pdf": FileTypePDF,
}

// Ext returns the lowercase extension of path, including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// FileTypeOf maps a path to its FileType by extension, case-insensitively.
func FileTypeOf(path string) FileType {
	return extFileTypes[Ext(path)]
}

// IsSupported reports whether a loader exists for path's extension.
func IsSupported(path string) bool {
	return FileTypeOf(path) != FileTypeUnsupported
}
