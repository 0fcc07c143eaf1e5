// Package workspace gives the reporter access to the CI checkout and the
// step output file.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
)

// Open returns the workspace rooted at root. Paths resolved through it cannot escape root.
func Open(root string) billy.Filesystem {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	return osfs.New(root, osfs.WithBoundOS())
}

// OutputFile appends step outputs in the GitHub Actions key=value format.
type OutputFile struct {
	fs   billy.Basic
	name string
	// delimiter generates heredoc delimiters for multi-line values.
	delimiter func() string
}

// NewOutputFile writes to the file at path, creating it when missing.
func NewOutputFile(path string) *OutputFile {
	path = filepath.Clean(path)
	return NewOutputFileFS(osfs.New(filepath.Dir(path)), filepath.Base(path))
}

func NewOutputFileFS(fs billy.Basic, name string) *OutputFile {
	return &OutputFile{
		fs:   fs,
		name: name,
		delimiter: func() string {
			return "ghadelimiter_" + uuid.NewString()
		},
	}
}

func (o *OutputFile) WriteOutput(key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("output key is required")
	}

	var entry string
	if strings.ContainsAny(value, "\r\n") {
		delimiter := o.delimiter()
		if strings.Contains(key, delimiter) || strings.Contains(value, delimiter) {
			return fmt.Errorf("output %s collides with delimiter %s", key, delimiter)
		}
		entry = fmt.Sprintf("%s<<%s\n%s\n%s\n", key, delimiter, value, delimiter)
	} else {
		entry = fmt.Sprintf("%s=%s\n", key, value)
	}

	f, err := o.fs.OpenFile(o.name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	if _, err := f.Write([]byte(entry)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}
