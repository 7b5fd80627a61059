package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrExtraction is matched by every ExtractionError
	ErrExtraction = errors.New("extraction failed")

	// ErrDecompression is matched by every DecompressionError
	ErrDecompression = errors.New("decompression failed")
)

// rootMarkers identify a game-state document when the entry has no .xml name
var rootMarkers = []string{"<game", "<GameObject"}

// ExtractionError reports a game-state container without a usable XML document
type ExtractionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("failed to extract game xml from %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExtraction) hold for any ExtractionError
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// DecompressionError reports a corrupt action log
type DecompressionError struct {
	Path string
	Err  error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("failed to decompress log %s: %v", e.Path, e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecompression) hold for any DecompressionError
func (e *DecompressionError) Is(target error) bool { return target == ErrDecompression }

// ExtractXML opens a zipped game-state file and returns its XML document
func ExtractXML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Reason: "cannot read archive", Err: err}
	}
	return extractXML(path, data)
}

// ExtractXMLBytes returns the XML document of an in-memory zip archive
func ExtractXMLBytes(data []byte) (string, error) {
	return extractXML("<memory>", data)
}

func extractXML(path string, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Path: path, Reason: "not a zip archive", Err: err}
	}

	// Prefer an entry named like an XML document
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(file.Name), ".xml") {
			content, err := readEntry(file)
			if err != nil {
				return "", &ExtractionError{Path: path, Reason: "cannot read entry " + file.Name, Err: err}
			}
			return content, nil
		}
	}

	// Fall back to the first entry that looks like a game document
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		content, err := readEntry(file)
		if err != nil {
			continue
		}
		for _, marker := range rootMarkers {
			if strings.Contains(content, marker) {
				return content, nil
			}
		}
	}

	return "", &ExtractionError{Path: path, Reason: "no xml entry found"}
}

func readEntry(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// DecompressLog inflates a raw DEFLATE compressed action log
func DecompressLog(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &DecompressionError{Path: path, Err: err}
	}
	text, err := InflateBytes(data)
	if err != nil {
		var de *DecompressionError
		if errors.As(err, &de) {
			de.Path = path
		}
		return "", err
	}
	return text, nil
}

// InflateBytes inflates raw DEFLATE data held in memory
func InflateBytes(data []byte) (string, error) {
	reader := flate.NewReader(bytes.NewReader(data))
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return "", &DecompressionError{Path: "<memory>", Err: err}
	}
	return string(out), nil
}

// Deflate compresses text with raw DEFLATE, the inverse of InflateBytes
func Deflate(text string) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create deflate writer: %w", err)
	}
	if _, err := writer.Write([]byte(text)); err != nil {
		return nil, fmt.Errorf("failed to write deflate data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close deflate writer: %w", err)
	}
	return buf.Bytes(), nil
}
