package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Office Open XML documents are zip archives of XML parts. The text of
// interest lives in "t" elements: w:t runs in Word documents, a:t runs
// in presentation slides, and t entries in the spreadsheet shared-string
// table. Paragraph ends ("p" elements, rows for spreadsheets) become
// newlines so the chunker sees sentence-like structure.

func extractDOCX(data []byte) (string, error) {
	return extractZipParts(data, func(name string) bool {
		return name == "word/document.xml"
	})
}

func extractPPTX(data []byte) (string, error) {
	return extractZipParts(data, func(name string) bool {
		return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
	})
}

func extractXLSX(data []byte) (string, error) {
	return extractZipParts(data, func(name string) bool {
		return name == "xl/sharedStrings.xml"
	})
}

func extractZipParts(data []byte, match func(name string) bool) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}

	var names []string
	for _, f := range archive.File {
		if match(f.Name) {
			names = append(names, f.Name)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no text parts found in archive")
	}
	// Slide parts enumerate in archive order; order by the numeric suffix
	// so slide10.xml follows slide9.xml, not slide1.xml.
	sort.Slice(names, func(i, j int) bool {
		a, b := partNumber(names[i]), partNumber(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})

	var out strings.Builder
	for _, name := range names {
		f, err := archive.Open(name)
		if err != nil {
			return "", fmt.Errorf("failed to open part %s: %w", name, err)
		}
		err = collectTextRuns(f, &out)
		_ = f.Close()
		if err != nil {
			return "", fmt.Errorf("failed to parse part %s: %w", name, err)
		}
		out.WriteString("\n")
	}

	return out.String(), nil
}

// partNumber extracts the trailing number of a part name such as
// "ppt/slides/slide12.xml". Parts without one sort first.
func partNumber(name string) int {
	name = strings.TrimSuffix(name, ".xml")
	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return 0
	}
	return n
}

// collectTextRuns appends the character data of every "t" element and
// turns paragraph/row boundaries into newlines.
func collectTextRuns(r io.Reader, out *strings.Builder) error {
	decoder := xml.NewDecoder(r)
	depth := 0 // nesting depth inside "t" elements

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Local == "t" {
				depth++
			}
		case xml.EndElement:
			switch tok.Name.Local {
			case "t":
				if depth > 0 {
					depth--
				}
			case "p", "row", "si":
				out.WriteString("\n")
			}
		case xml.CharData:
			if depth > 0 {
				out.Write(tok)
			}
		}
	}
}
