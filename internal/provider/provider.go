// Package provider opens source documents as layout providers.
package provider

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docquery/internal/layout"
)

// SupportedExtensions lists the file extensions that can be opened.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ForFile opens path by extension: PDFs are analyzed with ledongthuc/pdf,
// JSON and YAML files are read as layout dumps.
func ForFile(path string, opts ...PDFOption) (layout.Provider, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return OpenPDF(path, opts...)
	case ".json", ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open layout dump: %w", err)
		}
		defer f.Close()
		return layout.ReadDump(f)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// FromBytes opens an uploaded document; filename selects the format.
func FromBytes(data []byte, filename string, opts ...PDFOption) (layout.Provider, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".pdf":
		return NewPDF(bytes.NewReader(data), int64(len(data)), opts...)
	case ".json", ".yaml", ".yml":
		return layout.ReadDump(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}
