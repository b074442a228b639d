// Package vault provides read-only access to the Markdown source directory.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Vault is rooted at the directory that establishes relative slugs.
type Vault struct {
	root string
}

// Open resolves the root directory; it must already exist.
func Open(root string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &Vault{root: abs}, nil
}

// Root returns the absolute vault root.
func (v *Vault) Root() string {
	return v.root
}

// List walks the vault and returns the absolute path of every .md file, in
// walk order.
func (v *Vault) List() ([]string, error) {
	var out []string
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a vault file. The path may be absolute
// (from List) or relative to the root; relative paths that escape the root
// are rejected.
func (v *Vault) Read(path string) ([]byte, error) {
	abs := path
	if !filepath.IsAbs(path) {
		joined, err := filepath.Abs(filepath.Join(v.root, filepath.Clean(path)))
		if err != nil {
			return nil, fmt.Errorf("vault: resolve path: %w", err)
		}
		abs = joined
	}
	if !strings.HasPrefix(abs, v.root+string(os.PathSeparator)) && abs != v.root {
		return nil, fmt.Errorf("vault: path escapes root: %s", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	return data, nil
}
