package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the list file formats LoadList understands
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatJSON               // JSON array of strings
	FormatText               // One entry per line, # comments
)

// FormatInfo contains metadata about a list file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatJSON: {
		Format:      FormatJSON,
		Description: "JSON list",
		Extensions:  []string{".json"},
		MinSize:     2, // []
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain text list",
		Extensions:  []string{".txt", ".lst", ""},
		MinSize:     0,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// DetectFileFormat picks the format from the extension. Anything that is
// not .json is read as text.
func DetectFileFormat(filename string) FileFormat {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return FormatJSON
	}
	return FormatText
}

// ValidateFileFormat checks that filename exists, is a regular file and is
// large enough for format.
func ValidateFileFormat(filename string, format FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("%s is a directory", filename)
	}

	formatInfo, exists := GetFormatInfo(format)
	if !exists {
		return fmt.Errorf("unknown format: %v", format)
	}
	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	log.Debugf("%s validated as %s (%d bytes)", filename, formatInfo.Description, fileInfo.Size())
	return nil
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}
