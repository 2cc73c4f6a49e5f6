package build

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
)

// CopyDir copies the files under src into dst, creating directories as
// needed. Hidden files and directories are skipped. A missing src copies
// nothing.
func CopyDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return webcerrors.New(webcerrors.CodeReadFailed, map[string]any{"Path": src, "GoError": err.Error()})
	}
	if !info.IsDir() {
		return webcerrors.New(webcerrors.CodeReadFailed, map[string]any{"Path": src, "GoError": "not a directory"})
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != src {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return writeError(target, err)
			}
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return webcerrors.New(webcerrors.CodeReadFailed, map[string]any{"Path": src, "GoError": err.Error()})
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return writeError(dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return writeError(dst, err)
	}
	if err := out.Close(); err != nil {
		return writeError(dst, err)
	}
	return nil
}
