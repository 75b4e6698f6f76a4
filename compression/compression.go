// Package compression wraps and unwraps schematic byte streams. It knows
// nothing about the tag tree inside; it only inspects leading magic bytes.
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// DefaultMaxSize caps decompressed output so a small hostile file cannot
// expand into an unbounded allocation.
const DefaultMaxSize = 256 << 20

var ErrDecompressionFailed = errors.New("compression: decompression failed")
var ErrTooLarge = errors.New("compression: decompressed data exceeds limit")
var ErrUnknownScheme = errors.New("compression: unknown scheme")

// ErrTruncated accompanies ErrDecompressionFailed when the compressed stream
// ends before its framing is complete.
var ErrTruncated = errors.New("compression: stream ended early")

type Scheme byte

const (
	None Scheme = iota
	Gzip
	Zlib
	Zstd
)

var schemeNames = map[Scheme]string{
	None: "none",
	Gzip: "gzip",
	Zlib: "zlib",
	Zstd: "zstd",
}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scheme(%d)", byte(s))
}

// ParseScheme maps a scheme name back to its value.
func ParseScheme(name string) (Scheme, error) {
	for s, n := range schemeNames {
		if n == name {
			return s, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Detect picks a scheme from the leading bytes. Anything unrecognised is
// treated as an uncompressed stream.
func Detect(data []byte) Scheme {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return Gzip
	case len(data) >= 4 && bytes.Equal(data[:4], zstdMagic):
		return Zstd
	case len(data) >= 2 && isZlibHeader(data[0], data[1]):
		return Zlib
	}
	return None
}

// isZlibHeader checks the RFC 1950 CMF/FLG pair: deflate method, window of at
// most 32K and a header checksum divisible by 31.
func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

type options struct {
	maxSize int64
	level   int
	levelOK bool
}

type Option func(*options)

// WithMaxSize overrides DefaultMaxSize. A limit <= 0 disables the check.
func WithMaxSize(n int64) Option {
	return func(o *options) { o.maxSize = n }
}

// WithLevel sets the encoder level. Its meaning follows the scheme: 1-9 for
// gzip and zlib, 1-22 for zstd.
func WithLevel(level int) Option {
	return func(o *options) { o.level, o.levelOK = level, true }
}

func newOptions(opts []Option) options {
	o := options{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decompress detects the scheme of data and returns the unwrapped bytes.
// Uncompressed input is returned as is.
func Decompress(data []byte, opts ...Option) ([]byte, Scheme, error) {
	scheme := Detect(data)
	out, err := DecompressScheme(data, scheme, opts...)
	return out, scheme, err
}

// DecompressScheme unwraps data assuming the given scheme.
func DecompressScheme(data []byte, scheme Scheme, opts ...Option) ([]byte, error) {
	o := newOptions(opts)

	var stream io.Reader
	switch scheme {
	case None:
		return data, nil
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, failed("gzip header", err)
		}
		defer r.Close()
		stream = r
	case Zlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, failed("zlib header", err)
		}
		defer r.Close()
		stream = r
	case Zstd:
		r, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrDecompressionFailed, err)
		}
		defer r.Close()
		stream = r
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownScheme, scheme)
	}

	if o.maxSize > 0 {
		stream = io.LimitReader(stream, o.maxSize+1)
	}
	var out bytes.Buffer
	if _, err := out.ReadFrom(stream); err != nil {
		return nil, failed(scheme.String(), err)
	}
	if o.maxSize > 0 && int64(out.Len()) > o.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, o.maxSize)
	}
	return out.Bytes(), nil
}

func failed(stage string, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w: %s", ErrDecompressionFailed, ErrTruncated, stage)
	}
	return fmt.Errorf("%w: %s: %v", ErrDecompressionFailed, stage, err)
}

// Compress wraps data in the given scheme.
func Compress(data []byte, scheme Scheme, opts ...Option) ([]byte, error) {
	o := newOptions(opts)

	var out bytes.Buffer
	var w io.WriteCloser
	var err error
	switch scheme {
	case None:
		return append([]byte(nil), data...), nil
	case Gzip:
		level := gzip.DefaultCompression
		if o.levelOK {
			level = o.level
		}
		w, err = gzip.NewWriterLevel(&out, level)
	case Zlib:
		level := zlib.DefaultCompression
		if o.levelOK {
			level = o.level
		}
		w, err = zlib.NewWriterLevel(&out, level)
	case Zstd:
		zopts := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
		if o.levelOK {
			zopts = append(zopts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(o.level)))
		}
		w, err = zstd.NewWriter(&out, zopts...)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownScheme, scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("compression: %s writer: %w", scheme, err)
	}

	if _, err = w.Write(data); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
