// Package spongeschem reads and writes Sponge schematic files. Decode and
// Encode work on in-memory buffers and run the whole pipeline: compression,
// tag tree, version layout, palettes and packed block data.
package spongeschem

import (
	"errors"
	"fmt"

	"github.com/astei/spongeschem/compression"
	"github.com/astei/spongeschem/nbt"
	"github.com/astei/spongeschem/palette"
	"github.com/astei/spongeschem/schema"
	"github.com/astei/spongeschem/schematic"
	"github.com/astei/spongeschem/varint"
)

// Error kinds, for use with errors.Is.
var (
	ErrTruncated            = nbt.ErrTruncated
	ErrUnknownTag           = nbt.ErrUnknownTag
	ErrMalformedVarint      = varint.ErrMalformed
	ErrUnresolvedBlockState = palette.ErrUnresolvedBlockState
	ErrUnresolvedBiome      = palette.ErrUnresolvedBiome
	ErrUnsupportedVersion   = schema.ErrUnsupportedVersion
	ErrOutOfBounds          = schematic.ErrOutOfBounds
	ErrDecompressionFailed  = compression.ErrDecompressionFailed
	ErrTooLarge             = compression.ErrTooLarge
	ErrNotSchematic         = schema.ErrNotSchematic
)

type options struct {
	version  int
	scheme   compression.Scheme
	level    int
	levelSet bool
	maxSize  int64
	maxTags  int
	blocks   palette.Checker
	biomes   palette.Checker
}

type Option func(*options)

// WithVersion selects the format version Encode writes. The default is
// schema.LatestVersion.
func WithVersion(v int) Option {
	return func(o *options) { o.version = v }
}

// WithCompression selects the scheme Encode writes. The default is gzip.
func WithCompression(s compression.Scheme) Option {
	return func(o *options) { o.scheme = s }
}

// WithLevel sets the compression level Encode uses.
func WithLevel(level int) Option {
	return func(o *options) { o.level, o.levelSet = level, true }
}

// WithMaxDecompressedSize bounds how large Decode lets a compressed input
// grow. n <= 0 removes the bound.
func WithMaxDecompressedSize(n int64) Option {
	return func(o *options) { o.maxSize = n }
}

// WithMaxTags bounds how many tags Decode materialises from the tag tree.
// n <= 0 removes the bound.
func WithMaxTags(n int) Option {
	return func(o *options) { o.maxTags = n }
}

// WithBlockChecker rejects schematics whose block palette names identifiers
// c does not know.
func WithBlockChecker(c palette.Checker) Option {
	return func(o *options) { o.blocks = c }
}

// WithBiomeChecker rejects schematics whose biome palette names identifiers
// c does not know.
func WithBiomeChecker(c palette.Checker) Option {
	return func(o *options) { o.biomes = c }
}

func newOptions(opts []Option) options {
	o := options{
		version: schema.LatestVersion,
		scheme:  compression.Gzip,
		maxSize: compression.DefaultMaxSize,
		maxTags: nbt.DefaultMaxTags,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DecodeTree decompresses data and parses the tag tree without interpreting
// it as a schematic.
func DecodeTree(data []byte, opts ...Option) (name string, root *nbt.Compound, err error) {
	o := newOptions(opts)
	raw, _, err := compression.Decompress(data, compression.WithMaxSize(o.maxSize))
	if err != nil {
		if errors.Is(err, compression.ErrTruncated) {
			return "", nil, fmt.Errorf("%w: %w", ErrTruncated, err)
		}
		return "", nil, err
	}
	name, root, err = nbt.UnmarshalLimit(raw, o.maxTags)
	if errors.Is(err, nbt.ErrTooManyTags) {
		return "", nil, fmt.Errorf("%w: %w", ErrTooLarge, err)
	}
	return name, root, err
}

// Decode reads a schematic from data in any supported version and
// compression scheme.
func Decode(data []byte, opts ...Option) (*schematic.Schematic, error) {
	o := newOptions(opts)
	name, root, err := DecodeTree(data, opts...)
	if err != nil {
		return nil, err
	}
	return schema.Decode(name, root, schema.WithBlockChecker(o.blocks), schema.WithBiomeChecker(o.biomes))
}

// Encode writes s in the configured version and compression scheme. The
// report lists fields the version could not hold.
func Encode(s *schematic.Schematic, opts ...Option) ([]byte, *schema.Report, error) {
	o := newOptions(opts)
	name, root, report, err := schema.Encode(s, o.version)
	if err != nil {
		return nil, nil, err
	}
	raw, err := nbt.Marshal(name, root)
	if err != nil {
		return nil, nil, err
	}
	var copts []compression.Option
	if o.levelSet {
		copts = append(copts, compression.WithLevel(o.level))
	}
	out, err := compression.Compress(raw, o.scheme, copts...)
	if err != nil {
		return nil, nil, err
	}
	return out, report, nil
}
