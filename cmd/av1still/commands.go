package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/av1still/pkg/adapters/av1decoder"
	"github.com/user/av1still/pkg/adapters/libaom"
	"github.com/user/av1still/pkg/adapters/osfilesystem"
	"github.com/user/av1still/pkg/batch"
	"github.com/user/av1still/pkg/config"
	"github.com/user/av1still/pkg/imageconv"
	"github.com/user/av1still/pkg/obu"
	"github.com/user/av1still/pkg/ports"
	"github.com/user/av1still/pkg/still"
	"github.com/user/av1still/pkg/testpattern"
)

// stdio is the file name that selects stdin or stdout.
const stdio = "-"

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "output",
		Aliases:  []string{"o"},
		Usage:    l10n.T("Output OBU file path, - for stdout (required)"),
		Required: true,
		Category: categoryOutput,
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     l10n.T("Encode an image file"),
		ArgsUsage: "<src>",
		Flags:     append([]cli.Flag{outputFlag()}, encodingFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New(l10n.T("expected exactly one source image"))
			}
			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}
			log := newLogger(c, cfg)
			fs := osfilesystem.New()

			src := c.Args().First()
			img, err := readImage(c, fs, src)
			if err != nil {
				return err
			}
			return encodeAndWrite(c, cfg, log, fs, img, src)
		},
	}
}

func patternCommand() *cli.Command {
	flags := []cli.Flag{
		outputFlag(),
		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Value: 640, Usage: l10n.T("Pattern width"), Category: categoryOutput},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Value: 480, Usage: l10n.T("Pattern height"), Category: categoryOutput},
	}
	return &cli.Command{
		Name:  "pattern",
		Usage: l10n.T("Encode a generated test pattern"),
		Flags: append(flags, encodingFlags()...),
		Action: func(c *cli.Context) error {
			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}
			w, h := c.Int("width"), c.Int("height")
			if w < 1 || h < 1 {
				return errors.New(l10n.F("invalid pattern size %dx%d", w, h))
			}
			log := newLogger(c, cfg)
			name := fmt.Sprintf("pattern %dx%d", w, h)
			return encodeAndWrite(c, cfg, log, osfilesystem.New(), testpattern.Render(w, h), name)
		},
	}
}

func batchCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "out-dir", Aliases: []string{"d"}, Usage: l10n.T("Output directory (required)"), Required: true, Category: categoryOutput},
		&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: l10n.T("Number of images encoded at once (0 for one per CPU)"), Category: categoryEncoding},
		&cli.BoolFlag{Name: "skip-existing", Usage: l10n.T("Keep outputs that already exist"), Category: categoryOutput},
	}
	return &cli.Command{
		Name:      "batch",
		Usage:     l10n.T("Encode many image files concurrently"),
		ArgsUsage: "<src...>",
		Flags:     append(flags, encodingFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New(l10n.T("expected at least one source image"))
			}
			cfg, err := buildConfig(c)
			if err != nil {
				return err
			}
			log := newLogger(c, cfg)
			fs := osfilesystem.New()

			outDir := c.String("out-dir")
			if err := fs.MkdirAll(outDir); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			var enc batch.ImageEncoder = still.New(libaom.New(log), log)
			if cfg.Verify {
				enc = verifyingEncoder{enc}
			}
			opts := cfg.ToOptions()
			transform, err := thumbTransform(cfg)
			if err != nil {
				return err
			}

			log.Info("Encoding %d files into %s", c.NArg(), outDir)
			results, err := batch.Run(c.Context, batch.Jobs(c.Args().Slice(), outDir), enc, fs, log, batch.Options{
				Encode:    &opts,
				Limit:     cfg.Jobs,
				Transform: transform,

				SkipExisting: c.Bool("skip-existing"),
			})
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Skipped {
					fmt.Fprintln(c.App.Writer, l10n.F("%s -> %s (skipped)", r.Source, r.Output))
					continue
				}
				fmt.Fprintln(c.App.Writer, l10n.F("%s -> %s (%dx%d, %d bytes)", r.Source, r.Output, r.Width, r.Height, r.Bytes))
			}
			return nil
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     l10n.T("Describe an OBU file"),
		ArgsUsage: "<file.obu>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "av1c", Usage: l10n.T("Print the av1C box in hex"), Category: categoryOutput},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New(l10n.T("expected exactly one OBU file"))
			}
			data, err := readAll(c, osfilesystem.New(), c.Args().First())
			if err != nil {
				return err
			}
			return describe(c.App.Writer, data, c.Bool("av1c"))
		},
	}
}

// describe lists the OBUs of data and summarizes its sequence header.
func describe(w io.Writer, data []byte, av1c bool) error {
	err := obu.Walk(data, func(o obu.OBU) error {
		fmt.Fprintf(w, "%8d  %-22s %8d\n", o.Offset, o.Type, len(o.Payload))
		return nil
	})
	if err != nil {
		return err
	}

	seq, err := obu.SequenceHeader(data)
	if err != nil {
		return err
	}
	info, err := obu.ParseSequenceHeader(seq.Payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, l10n.F("profile %d, level %d, tier %d, %dx%d", info.Profile, info.LevelIdx, info.Tier, info.MaxWidth, info.MaxHeight))
	fmt.Fprintln(w, l10n.F("still picture: %t, reduced header: %t, operating points: %d",
		info.StillPicture, info.ReducedStillPictureHeader, info.OperatingPoints))

	if av1c {
		box, err := obu.EncodeCodecConfigBox(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "av1C: %s\n", hex.EncodeToString(box))
	}
	return nil
}

// encodeAndWrite encodes img with cfg and writes it to the output flag.
func encodeAndWrite(c *cli.Context, cfg config.Config, log ports.Logger, fs ports.FileSystem, img image.Image, name string) error {
	transform, err := thumbTransform(cfg)
	if err != nil {
		return err
	}
	if transform != nil {
		img = transform(img)
	}

	opts := cfg.ToOptions()
	enc := still.New(libaom.New(log), log)
	data, err := enc.EncodeImage(c.Context, img, &opts)
	if err != nil {
		return err
	}
	if cfg.Verify {
		if err := verify(data, img); err != nil {
			return err
		}
		log.Info("Verified the bitstream with the reference decoder")
	}

	out := c.String("output")
	if out == stdio {
		_, err = c.App.Writer.Write(data)
		return err
	}
	if err := fs.WriteFile(out, data); err != nil {
		return err
	}
	b := img.Bounds()
	log.Info("Encoded %s (%dx%d) to %s: %d bytes", name, b.Dx(), b.Dy(), out, len(data))
	return nil
}

// thumbTransform returns the thumbnail transform for cfg, or nil.
func thumbTransform(cfg config.Config) (func(image.Image) image.Image, error) {
	if cfg.Thumb == "" {
		return nil, nil
	}
	w, h, err := imageconv.ParseThumb(cfg.Thumb)
	if err != nil {
		return nil, err
	}
	return func(img image.Image) image.Image {
		return imageconv.Thumbnail(img, w, h)
	}, nil
}

// verify decodes data and compares its size with img.
func verify(data []byte, img image.Image) error {
	decoded, err := av1decoder.DecodeOBU(data)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	want, got := img.Bounds(), decoded.Bounds()
	if want.Dx() != got.Dx() || want.Dy() != got.Dy() {
		return fmt.Errorf("verify: decoded %dx%d, want %dx%d", got.Dx(), got.Dy(), want.Dx(), want.Dy())
	}
	return nil
}

// verifyingEncoder checks every bitstream it produces.
type verifyingEncoder struct {
	batch.ImageEncoder
}

func (v verifyingEncoder) EncodeImage(ctx context.Context, img image.Image, opts *still.Options) ([]byte, error) {
	data, err := v.ImageEncoder.EncodeImage(ctx, img, opts)
	if err != nil {
		return nil, err
	}
	return data, verify(data, img)
}

func readImage(c *cli.Context, fs ports.FileSystem, path string) (image.Image, error) {
	var r io.Reader = c.App.Reader
	if path != stdio {
		f, err := fs.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func readAll(c *cli.Context, fs ports.FileSystem, path string) ([]byte, error) {
	if path == stdio {
		return io.ReadAll(c.App.Reader)
	}
	return fs.ReadFile(path)
}
