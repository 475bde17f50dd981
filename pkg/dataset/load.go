// ABOUTME: Flat-file loading of datasets: JSON documents and JSON Lines
// ABOUTME: Transparently decompresses .gz, .zst and .lz4 files

package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/nainya/recquery/pkg/value"
)

// ErrUnsupportedFormat is returned for file extensions Load cannot read.
var ErrUnsupportedFormat = errors.New("dataset: unsupported file format")

// Format is the record encoding of a flat file.
type Format uint8

const (
	// FormatJSON is a single document: an array (index keys) or an object
	// (name keys).
	FormatJSON Format = iota
	// FormatJSONLines is one JSON record per line, keyed 0..n-1.
	FormatJSONLines
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatJSONLines:
		return "jsonl"
	default:
		return "unknown"
	}
}

// Compression is the container compression of a flat file.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// maxLineSize bounds a single JSON Lines record.
const maxLineSize = 64 << 20

// DetectFormat derives format and compression from a file name such as
// "users.jsonl.zst".
func DetectFormat(path string) (Format, Compression, error) {
	name := strings.ToLower(filepath.Base(path))

	comp := CompressionNone
	switch ext := filepath.Ext(name); ext {
	case ".gz":
		comp = CompressionGzip
	case ".zst", ".zstd":
		comp = CompressionZstd
	case ".lz4":
		comp = CompressionLZ4
	}
	if comp != CompressionNone {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, comp, nil
	case ".jsonl", ".ndjson":
		return FormatJSONLines, comp, nil
	default:
		return 0, comp, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads a dataset from a flat file, choosing the decoder by extension.
func Load(path string) (*Dataset, error) {
	format, comp, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	r, err := Decompress(f, comp)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer r.Close()

	ds, err := Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", path, err)
	}
	return ds, nil
}

// Decompress wraps r with a reader for comp.
func Decompress(r io.Reader, comp Compression) (io.ReadCloser, error) {
	switch comp {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupportedFormat, comp)
	}
}

// Decode reads a dataset in the given format from r.
func Decode(r io.Reader, format Format) (*Dataset, error) {
	switch format {
	case FormatJSON:
		return decodeDocument(r)
	case FormatJSONLines:
		return decodeLines(r)
	default:
		return nil, fmt.Errorf("%w: format %d", ErrUnsupportedFormat, format)
	}
}

func decodeDocument(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := value.DecodeJSON(dec)
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", value.ErrInvalidJSON)
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", value.ErrInvalidJSON)
	}
	return FromValue(v)
}

func decodeLines(r io.Reader) (*Dataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	ds := New(0)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		rec, err := value.ParseJSON(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ds.Append(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return ds, nil
}
