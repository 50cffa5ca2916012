// Package extract converts uploaded course files into plain text,
// keyed by file extension.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Func extracts plain text from raw file bytes.
type Func func(data []byte) (string, error)

// extractors maps lowercase file extensions to extraction functions.
var extractors = map[string]Func{
	".txt":  extractPlainText,
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".pptx": extractPPTX,
	".xlsx": extractXLSX,
}

// IsSupported reports whether the file type can be extracted.
func IsSupported(fileName string) bool {
	_, ok := extractors[normalizeExt(fileName)]
	return ok
}

// SupportedExtensions lists the extractable file extensions.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	return exts
}

// Text extracts plain text from a file, dispatching on its extension.
func Text(fileName string, data []byte) (string, error) {
	ext := normalizeExt(fileName)
	fn, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	text, err := fn(data)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", fileName, err)
	}
	return text, nil
}

func normalizeExt(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		// Salvage what is decodable rather than failing the file.
		return strings.ToValidUTF8(string(data), ""), nil
	}
	return string(data), nil
}
