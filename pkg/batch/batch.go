// Package batch encodes many image files concurrently.
package batch

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/user/av1still/pkg/ports"
	"github.com/user/av1still/pkg/still"
)

// Extension is appended to the base name of every output file.
const Extension = ".obu"

// ImageEncoder encodes one decoded image.
type ImageEncoder interface {
	EncodeImage(ctx context.Context, img image.Image, opts *still.Options) ([]byte, error)
}

// Job names one source image and where its bitstream goes.
type Job struct {
	Source string
	Output string
}

// Result describes a finished job.
type Result struct {
	Source string
	Output string
	Width  int
	Height int
	Bytes  int

	// Skipped is set when the output already existed and was kept.
	Skipped bool
}

// Options configures Run.
type Options struct {
	Encode *still.Options // Nil uses still.DefaultOptions
	Limit  int            // Maximum concurrent jobs; 0 means one per CPU

	// Transform, if set, is applied to every decoded image before encoding.
	Transform func(image.Image) image.Image

	// SkipExisting keeps outputs that already exist instead of encoding
	// their sources again.
	SkipExisting bool
}

// Jobs maps each source to <outDir>/<base name without extension>.obu.
func Jobs(sources []string, outDir string) []Job {
	jobs := make([]Job, len(sources))
	for i, src := range sources {
		base := filepath.Base(src)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		jobs[i] = Job{Source: src, Output: filepath.Join(outDir, base+Extension)}
	}
	return jobs
}

// Run encodes jobs with at most opts.Limit running at once. The first
// failure cancels jobs that have not finished; Run then returns that
// error. Results are in job order; entries of unfinished jobs are zero.
func Run(ctx context.Context, jobs []Job, enc ImageEncoder, fs ports.FileSystem, log ports.Logger, opts Options) ([]Result, error) {
	if log == nil {
		log = ports.Discard
	}
	log = log.WithComponent("batch")

	limit := opts.Limit
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	log.Debug("Encoding %d files with %d workers", len(jobs), limit)

	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := runJob(ctx, job, enc, fs, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Source, err)
			}
			if res.Skipped {
				log.Info("Skipped %s: %s already exists", res.Source, res.Output)
			} else {
				log.Debug("Encoded %s (%dx%d) to %s: %d bytes", res.Source, res.Width, res.Height, res.Output, res.Bytes)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func runJob(ctx context.Context, job Job, enc ImageEncoder, fs ports.FileSystem, opts Options) (Result, error) {
	if opts.SkipExisting {
		exists, err := fs.Exists(job.Output)
		if err != nil {
			return Result{}, err
		}
		if exists {
			return Result{Source: job.Source, Output: job.Output, Skipped: true}, nil
		}
	}

	img, err := decode(fs, job.Source)
	if err != nil {
		return Result{}, err
	}
	if opts.Transform != nil {
		img = opts.Transform(img)
	}

	data, err := enc.EncodeImage(ctx, img, opts.Encode)
	if err != nil {
		return Result{}, err
	}
	if err := fs.WriteFile(job.Output, data); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", job.Output, err)
	}

	b := img.Bounds()
	return Result{
		Source: job.Source,
		Output: job.Output,
		Width:  b.Dx(),
		Height: b.Dy(),
		Bytes:  len(data),
	}, nil
}

func decode(fs ports.FileSystem, path string) (image.Image, error) {
	r, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
