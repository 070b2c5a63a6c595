package epub

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/goliatone/go-bookbinder/internal/logging"
	"github.com/goliatone/go-bookbinder/internal/mediatype"
	"github.com/goliatone/go-bookbinder/pkg/interfaces"
)

const (
	mimetypeFileName = "mimetype"
	containerXMLPath = "META-INF/container.xml"
	oebpsDir         = "OEBPS"
	rootFilePath     = oebpsDir + "/content.opf"
	navFilePath      = oebpsDir + "/nav.xhtml"
)

// container.xml is fixed; no template needed.
const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="` + rootFilePath + `" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// Assembler writes components into the zip container. The optional
// compressor recompresses images on the way in; a compressor failure falls
// back to the original bytes.
type Assembler struct {
	compressor interfaces.Compressor
	logger     interfaces.Logger
}

// NewAssembler builds an assembler. Both arguments are optional.
func NewAssembler(compressor interfaces.Compressor, logger interfaces.Logger) *Assembler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Assembler{compressor: compressor, logger: logger}
}

// Assemble writes the package to outputPath, creating parent directories and
// overwriting any existing file. The mimetype entry goes first and stored
// uncompressed, as the container format requires. A partially written file
// is removed on failure.
func (a *Assembler) Assemble(ctx context.Context, components *Components, outputPath string) (err error) {
	if components == nil {
		return fmt.Errorf("epub: nothing to assemble")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("epub: create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("epub: create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("epub: close output file: %w", cerr)
		}
		if err != nil {
			if rmErr := os.Remove(outputPath); rmErr == nil {
				a.logger.Info("removed partial output", "path", outputPath)
			}
		}
	}()

	zw := zip.NewWriter(file)
	if err = a.writeMimetype(zw); err != nil {
		return err
	}
	if err = writeEntry(zw, containerXMLPath, []byte(containerXML)); err != nil {
		return err
	}
	if err = writeEntry(zw, rootFilePath, components.ContentOPF); err != nil {
		return err
	}
	if err = writeEntry(zw, navFilePath, components.Nav); err != nil {
		return err
	}
	if err = writeEntry(zw, oebpsPath(components.InfoPage.Href), components.InfoPage.Content); err != nil {
		return err
	}
	if components.CoverPage != nil {
		if err = writeEntry(zw, oebpsPath(components.CoverPage.Href), components.CoverPage.Content); err != nil {
			return err
		}
	}
	for _, page := range components.Pages {
		if err = writeEntry(zw, oebpsPath(page.Href), page.Content); err != nil {
			return err
		}
	}
	if components.Stylesheet != nil {
		if err = writeEntry(zw, oebpsPath(components.Stylesheet.Href), components.Stylesheet.Content); err != nil {
			return err
		}
	}
	if err = a.writeImages(ctx, zw, components); err != nil {
		return err
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("epub: finalize archive: %w", err)
	}
	return nil
}

// writeMimetype emits the first archive entry uncompressed so readers can
// sniff the container type from the raw bytes.
func (a *Assembler) writeMimetype(zw *zip.Writer) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   mimetypeFileName,
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("epub: create mimetype entry: %w", err)
	}
	if _, err := w.Write([]byte(mediatype.EPUB)); err != nil {
		return fmt.Errorf("epub: write mimetype entry: %w", err)
	}
	return nil
}

// writeImages copies each image into the archive. An unreadable image is
// omitted with a log entry instead of failing the whole package.
func (a *Assembler) writeImages(ctx context.Context, zw *zip.Writer, components *Components) error {
	for _, image := range components.Images {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(image.Path)
		if err != nil {
			a.logger.Error("omitting unreadable image", "path", image.Path, "error", err)
			continue
		}
		if a.compressor != nil {
			out, skipped, cerr := a.compressor.Compress(ctx, data, image.MediaType)
			switch {
			case cerr != nil:
				a.logger.Warn("image recompression failed, keeping original", "path", image.Path, "error", cerr)
			case !skipped && len(out) > 0:
				data = out
			}
		}
		if err := writeEntry(zw, oebpsPath(image.Href), data); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, content []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("epub: create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("epub: write archive entry %s: %w", name, err)
	}
	return nil
}

func oebpsPath(href string) string {
	return path.Join(oebpsDir, href)
}
