// Package compression provides the stream codecs used to store statistics
// traces. Every codec is exposed through the same writer/reader pair so the
// recorder can stay agnostic of the algorithm.
//
// # Algorithm Selection
//
//   - LZ4: extremely fast, decent compression
//   - Snappy/S2: fast, moderate compression
//   - Zstd: best compression ratio, good speed
//   - Gzip: widest tool compatibility
//
// # Basic Usage
//
//	w, err := compression.NewWriter(file, compression.Zstd)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	_, err = w.Write(line)
package compression

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/spawnpool/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents snappy framed compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2}

// ParseAlgorithm resolves a configured name. The empty string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return None, nil
	}
	algo := Algorithm(strings.ToLower(name))
	for _, a := range Algorithms {
		if a == algo {
			return a, nil
		}
	}
	return "", errors.New(errors.ErrorTypeValidation, "unsupported compression algorithm").
		WithDetail("algorithm", name)
}

// Extension returns the conventional file suffix for the algorithm.
func (a Algorithm) Extension() string {
	switch a {
	case Gzip:
		return ".gz"
	case Snappy:
		return ".sz"
	case LZ4:
		return ".lz4"
	case Zstd:
		return ".zst"
	case S2:
		return ".s2"
	default:
		return ""
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// NewWriter wraps dst with an encoder for algo. Closing the returned writer
// flushes the encoder but does not close dst.
func NewWriter(dst io.Writer, algo Algorithm) (io.WriteCloser, error) {
	switch algo {
	case None, "":
		return nopWriteCloser{dst}, nil
	case Gzip:
		return gzip.NewWriterLevel(dst, gzip.DefaultCompression)
	case Snappy:
		return snappy.NewBufferedWriter(dst), nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(lz4.Level5)); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to configure lz4 writer")
		}
		return w, nil
	case Zstd:
		enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd encoder")
		}
		return enc, nil
	case S2:
		return s2.NewWriter(dst), nil
	default:
		return nil, errors.New(errors.ErrorTypeValidation, "unsupported compression algorithm").
			WithDetail("algorithm", string(algo))
	}
}

// NewReader wraps src with a decoder for algo.
func NewReader(src io.Reader, algo Algorithm) (io.ReadCloser, error) {
	switch algo {
	case None, "":
		return readCloser{Reader: src}, nil
	case Gzip:
		r, err := gzip.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open gzip stream")
		}
		return r, nil
	case Snappy:
		return readCloser{Reader: snappy.NewReader(src)}, nil
	case LZ4:
		return readCloser{Reader: lz4.NewReader(src)}, nil
	case Zstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open zstd stream")
		}
		return readCloser{Reader: dec, close: func() error { dec.Close(); return nil }}, nil
	case S2:
		return readCloser{Reader: s2.NewReader(src)}, nil
	default:
		return nil, errors.New(errors.ErrorTypeValidation, "unsupported compression algorithm").
			WithDetail("algorithm", string(algo))
	}
}

// Compress encodes data in memory.
func Compress(data []byte, algo Algorithm) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, algo)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decodes data in memory.
func Decompress(data []byte, algo Algorithm) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(data), algo)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decompress").
			WithDetail("algorithm", string(algo))
	}
	return out, nil
}
