package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// fileMode is applied to written screenshots
const fileMode os.FileMode = 0o644

// PNGEncoder is an image that can encode itself as PNG
type PNGEncoder interface {
	EncodePNG(w io.Writer) error
}

// Writer stores images atomically: the data goes to a temporary file in
// the destination directory which is then renamed over the target.
type Writer struct {
	Fs afero.Fs
}

// NewWriter returns a writer on fsys
func NewWriter(fsys afero.Fs) *Writer {
	return &Writer{Fs: fsys}
}

// Write encodes img into path
func (w *Writer) Write(path string, img PNGEncoder) error {
	log := logger.WithComponent("output")

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(w.Fs, dir, "."+base+".*.tmp")
	if err != nil {
		return xerr.New(xerr.IOError, describe(path, err))
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		if rmErr := w.Fs.Remove(tmpName); rmErr != nil {
			log.Debug().Err(rmErr).Str("path", tmpName).Msg("Failed to remove temporary file")
		}
		return xerr.New(xerr.IOError, describe(path, err))
	}

	buf := bufio.NewWriter(tmp)
	if err := img.EncodePNG(buf); err != nil {
		return fail(err)
	}
	if err := buf.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := w.Fs.Chmod(tmpName, fileMode); err != nil {
		return fail(err)
	}
	info, err := w.Fs.Stat(tmpName)
	if err != nil {
		return fail(err)
	}
	if err := w.Fs.Rename(tmpName, path); err != nil {
		return fail(err)
	}

	log.Debug().
		Str("path", path).
		Str("size", humanize.Bytes(uint64(info.Size()))).
		Msg("Screenshot written")
	return nil
}

func describe(path string, err error) error {
	return fmt.Errorf("failed to write %s: %w", path, err)
}
