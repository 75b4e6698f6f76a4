package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/astei/spongeschem"
	"github.com/astei/spongeschem/compression"
	"github.com/astei/spongeschem/nbt"
	"github.com/astei/spongeschem/schema"
	"github.com/astei/spongeschem/schematic"
)

var (
	warn    = color.New(color.FgYellow).SprintfFunc()
	failure = color.New(color.FgRed, color.Bold).SprintfFunc()
	heading = color.New(color.FgCyan, color.Bold).SprintfFunc()
)

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Value:   "text",
	Usage:   "output format: text, json or yaml",
}

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "summarizes one or more schematics",
	ArgsUsage: "FILE...",
	Flags:     []cli.Flag{formatFlag},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit("need at least one schematic", 2)
		}
		opts := []spongeschem.Option{spongeschem.WithMaxDecompressedSize(c.Int64("max-size"))}
		results := loadFiles(c.Args().Slice(), opts...)

		summaries := make([]summary, len(results))
		failed := 0
		for i, r := range results {
			summaries[i] = summarize(r)
			if r.Err != nil {
				failed++
			}
		}
		if err := writeSummaries(os.Stdout, c.String("format"), summaries); err != nil {
			return err
		}
		if failed > 0 {
			return cli.Exit(fmt.Sprintf("%d of %d files could not be read", failed, len(results)), 1)
		}
		return nil
	},
}

type summary struct {
	File          string `json:"file" yaml:"file"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
	Compression   string `json:"compression,omitempty" yaml:"compression,omitempty"`
	Version       int    `json:"version,omitempty" yaml:"version,omitempty"`
	DataVersion   int32  `json:"dataVersion,omitempty" yaml:"dataVersion,omitempty"`
	Size          []int  `json:"size,omitempty" yaml:"size,omitempty,flow"`
	Offset        []int  `json:"offset,omitempty" yaml:"offset,omitempty,flow"`
	BlockPalette  int    `json:"blockPalette,omitempty" yaml:"blockPalette,omitempty"`
	NonAirBlocks  int    `json:"nonAirBlocks" yaml:"nonAirBlocks"`
	Biomes        string `json:"biomes,omitempty" yaml:"biomes,omitempty"`
	BiomePalette  int    `json:"biomePalette,omitempty" yaml:"biomePalette,omitempty"`
	BlockEntities int    `json:"blockEntities" yaml:"blockEntities"`
	Entities      int    `json:"entities" yaml:"entities"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	Author        string `json:"author,omitempty" yaml:"author,omitempty"`
}

func summarize(r loadedFile) summary {
	out := summary{File: r.Path}
	if r.Err != nil {
		out.Error = r.Err.Error()
		return out
	}
	s := r.Schematic
	size, offset := s.Size(), s.Offset()
	out.Compression = r.Scheme.String()
	out.Version = s.Version()
	out.DataVersion = s.DataVersion()
	out.Size = []int{size.X, size.Y, size.Z}
	out.Offset = []int{offset.X, offset.Y, offset.Z}
	out.BlockPalette = s.BlockPalette().Entries()
	for range s.Blocks() {
		out.NonAirBlocks++
	}
	if s.BiomeShape() != schematic.NoBiomes {
		out.Biomes = s.BiomeShape().String()
		out.BiomePalette = s.BiomePalette().Entries()
	}
	out.BlockEntities = len(s.BlockEntities())
	out.Entities = len(s.Entities())
	out.Name = s.Name()
	out.Author = s.Author()
	return out
}

func writeSummaries(w io.Writer, format string, summaries []summary) error {
	switch format {
	case "json":
		return writeJSON(w, summaries)
	case "yaml":
		return writeYAML(w, summaries)
	case "text":
		for _, s := range summaries {
			writeText(w, s)
		}
		return nil
	}
	return cli.Exit(fmt.Sprintf("unknown format %q", format), 2)
}

func writeText(w io.Writer, s summary) {
	_, _ = fmt.Fprintln(w, heading("%s", s.File))
	if s.Error != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", failure("%s", s.Error))
		return
	}
	_, _ = fmt.Fprintf(w, "  format:         sponge v%d (%s)\n", s.Version, s.Compression)
	_, _ = fmt.Fprintf(w, "  data version:   %d\n", s.DataVersion)
	_, _ = fmt.Fprintf(w, "  size:           %d x %d x %d\n", s.Size[0], s.Size[1], s.Size[2])
	_, _ = fmt.Fprintf(w, "  offset:         %d, %d, %d\n", s.Offset[0], s.Offset[1], s.Offset[2])
	_, _ = fmt.Fprintf(w, "  block palette:  %d (%d non-air blocks)\n", s.BlockPalette, s.NonAirBlocks)
	if s.Biomes != "" {
		_, _ = fmt.Fprintf(w, "  biome palette:  %d (per %s)\n", s.BiomePalette, s.Biomes)
	}
	_, _ = fmt.Fprintf(w, "  block entities: %d\n", s.BlockEntities)
	_, _ = fmt.Fprintf(w, "  entities:       %d\n", s.Entities)
	if s.Name != "" {
		_, _ = fmt.Fprintf(w, "  name:           %s\n", s.Name)
	}
	if s.Author != "" {
		_, _ = fmt.Fprintf(w, "  author:         %s\n", s.Author)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

var convertCommand = &cli.Command{
	Name:      "convert",
	Usage:     "re-encodes a schematic in another version or compression",
	ArgsUsage: "IN OUT",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "version", Value: schema.LatestVersion, Usage: "format version to write"},
		&cli.StringFlag{Name: "compression", Value: compression.Gzip.String(), Usage: "none, gzip, zlib or zstd"},
		&cli.IntFlag{Name: "level", Usage: "compression level; 0 uses the scheme's default"},
		&cli.BoolFlag{Name: "strict", Usage: "fail instead of warning when fields are dropped"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("need an input and an output file", 2)
		}
		scheme, err := compression.ParseScheme(c.String("compression"))
		if err != nil {
			return err
		}
		in, out := c.Args().Get(0), c.Args().Get(1)

		loaded := loadFiles([]string{in}, spongeschem.WithMaxDecompressedSize(c.Int64("max-size")))[0]
		if loaded.Err != nil {
			return loaded.Err
		}

		opts := []spongeschem.Option{
			spongeschem.WithVersion(c.Int("version")),
			spongeschem.WithCompression(scheme),
		}
		if c.IsSet("level") && c.Int("level") != 0 {
			opts = append(opts, spongeschem.WithLevel(c.Int("level")))
		}
		data, report, err := spongeschem.Encode(loaded.Schematic, opts...)
		if err != nil {
			return err
		}
		for _, field := range report.Dropped {
			_, _ = fmt.Fprintln(os.Stderr, warn("warning: sponge v%d cannot store %s; dropped", report.Version, field))
		}
		if c.Bool("strict") && !report.Lossless() {
			return cli.Exit(fmt.Sprintf("refusing to drop %d field(s)", len(report.Dropped)), 1)
		}
		if err = os.WriteFile(out, data, 0644); err != nil {
			return err
		}
		_, _ = fmt.Printf("wrote %s: sponge v%d, %s, %d bytes\n", out, report.Version, scheme, len(data))
		return nil
	},
}

var dumpCommand = &cli.Command{
	Name:      "dump",
	Usage:     "prints the decompressed tag tree",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "output format: json or yaml"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("need exactly one file", 2)
		}
		data, err := os.ReadFile(c.Args().First())
		if err != nil {
			return err
		}
		name, root, err := spongeschem.DecodeTree(data, spongeschem.WithMaxDecompressedSize(c.Int64("max-size")))
		if err != nil {
			return err
		}
		tree := map[string]interface{}{"name": name, "value": nbt.Plain(root)}
		switch c.String("format") {
		case "json":
			return writeJSON(os.Stdout, tree)
		case "yaml":
			return writeYAML(os.Stdout, tree)
		}
		return cli.Exit(fmt.Sprintf("unknown format %q", c.String("format")), 2)
	},
}
