// Package compress shrinks image payloads before they enter a package.
// PNG and JPEG bytes are re-encoded with tighter settings; WebP is validated
// and passed through, since no encoder is available. Results never grow: when
// re-encoding would produce a larger file the original bytes win.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"sync"

	"golang.org/x/image/webp"

	"github.com/goliatone/go-bookbinder/internal/logging"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
)

// Options tune the recompressor.
type Options struct {
	// JPEGQuality is the re-encode quality, 1-100. Defaults to 80.
	JPEGQuality int
	// KeepLarger disables the skip-if-larger guard; mostly for tests.
	KeepLarger bool
	// MaxWorkers bounds the batch worker pool. Defaults to 4.
	MaxWorkers int
}

// Recompressor implements the image compression hook of the assembler and a
// batch mode for whole directories of downloaded assets.
type Recompressor struct {
	opts   Options
	logger interfaces.Logger
}

// New builds a recompressor. The logger is optional.
func New(opts Options, logger interfaces.Logger) *Recompressor {
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 80
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Recompressor{opts: opts, logger: logger}
}

// Compress re-encodes the payload according to its media type. skipped
// reports that the original bytes should be used: unsupported type, pass-
// through format, or a result that came out larger.
func (r *Recompressor) Compress(ctx context.Context, data []byte, mediaType string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var (
		out []byte
		err error
	)
	switch mediaType {
	case "image/png":
		out, err = reencodePNG(data)
	case "image/jpeg":
		out, err = r.reencodeJPEG(data)
	case "image/webp":
		// Decode-only format: validate and pass through.
		if _, werr := webp.Decode(bytes.NewReader(data)); werr != nil {
			return nil, false, fmt.Errorf("compress: invalid webp payload: %w", werr)
		}
		return nil, true, nil
	default:
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !r.opts.KeepLarger && len(out) >= len(data) {
		return nil, true, nil
	}
	return out, false, nil
}

func reencodePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("compress: decode png: %w", err)
	}
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("compress: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Recompressor) reencodeJPEG(data []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("compress: decode jpeg: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.opts.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("compress: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// FileResult reports the outcome for one file of a batch run.
type FileResult struct {
	Path    string
	Skipped bool
	Before  int
	After   int
	Err     error
}

// CompressFiles rewrites image files in place using a bounded worker pool.
// Per-file failures land in the result slice; only context cancellation
// stops the batch early.
func (r *Recompressor) CompressFiles(ctx context.Context, mediaTypeOf func(string) string, paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	sem := make(chan struct{}, r.opts.MaxWorkers)
	var wg sync.WaitGroup

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			results[i] = FileResult{Path: path, Err: err}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.compressFile(ctx, mediaTypeOf(path), path)
		}(i, path)
	}
	wg.Wait()
	return results
}

func (r *Recompressor) compressFile(ctx context.Context, mediaType, path string) FileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	out, skipped, err := r.Compress(ctx, data, mediaType)
	if err != nil || skipped {
		return FileResult{Path: path, Skipped: skipped, Before: len(data), After: len(data), Err: err}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return FileResult{Path: path, Err: err}
	}
	r.logger.Debug("recompressed image", "path", path, "before", len(data), "after", len(out))
	return FileResult{Path: path, Before: len(data), After: len(out)}
}

var _ interfaces.Compressor = (*Recompressor)(nil)
