// Package output decides where screenshots are written and writes them.
package output

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
	"github.com/ncruces/go-strftime"
	"github.com/spf13/afero"
)

// DefaultPattern is the strftime pattern of generated file names
const DefaultPattern = "Screenshot %Y-%m-%d %H-%M-%S.png"

// Resolver turns the optional output argument into a file path
type Resolver struct {
	Fs      afero.Fs
	Home    string
	Now     func() time.Time
	Pattern string
}

// NewResolver returns a resolver for the user's home directory and the
// current time
func NewResolver(fsys afero.Fs, pattern string) *Resolver {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Resolver{
		Fs:      fsys,
		Home:    xdg.Home,
		Now:     time.Now,
		Pattern: pattern,
	}
}

// Filename returns the generated file name for the current time
func (r *Resolver) Filename() (string, error) {
	name := strftime.Format(r.Pattern, r.Now())
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return "", xerr.Errorf(xerr.InvalidPath, "filename pattern %q must produce a plain file name", r.Pattern)
	}
	return name, nil
}

// Resolve returns the path to write to. An empty arg selects the home
// directory, a directory gets a generated file name, anything else is used
// as is but its directory must exist.
func (r *Resolver) Resolve(arg string) (string, error) {
	if arg == "" {
		if r.Home == "" {
			return "", xerr.Errorf(xerr.InvalidPath, "cannot determine the home directory")
		}
		return r.inDir(r.Home)
	}

	if arg == "~" || strings.HasPrefix(arg, "~/") {
		arg = filepath.Join(r.Home, strings.TrimPrefix(arg, "~"))
	}

	info, err := r.Fs.Stat(arg)
	switch {
	case err == nil && info.IsDir():
		return r.inDir(arg)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return "", xerr.New(xerr.InvalidPath, err)
	}

	dir := filepath.Dir(arg)
	dirInfo, err := r.Fs.Stat(dir)
	if err != nil || !dirInfo.IsDir() {
		return "", xerr.Errorf(xerr.InvalidPath, "directory %s does not exist", dir)
	}
	return arg, nil
}

func (r *Resolver) inDir(dir string) (string, error) {
	name, err := r.Filename()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
