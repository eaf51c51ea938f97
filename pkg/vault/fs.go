package vault

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tilecraft/atlas/pkg/errors"
)

// FSVault is a filesystem-backed vault rooted at a directory. This is the
// primary backend: the host application keeps its documents on disk.
type FSVault struct {
	root string
}

// NewFSVault opens a vault rooted at dir, creating it if missing.
func NewFSVault(dir string) (*FSVault, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWrite, err, "create vault root %s", dir)
	}
	return &FSVault{root: dir}, nil
}

// Root returns the vault's root directory.
func (v *FSVault) Root() string { return v.root }

// abs resolves a vault-relative path after validating it.
func (v *FSVault) abs(p string) (string, error) {
	if err := errors.ValidateVaultPath(p); err != nil {
		return "", err
	}
	return filepath.Join(v.root, filepath.FromSlash(p)), nil
}

func (v *FSVault) Exists(ctx context.Context, p string) (bool, error) {
	full, err := v.abs(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStoreRead, err, "stat %s", p)
	}
	return true, nil
}

func (v *FSVault) Read(ctx context.Context, p string) (*Document, error) {
	data, err := v.ReadBinary(ctx, p)
	if err != nil {
		return nil, err
	}
	return ParseDocument(p, data)
}

func (v *FSVault) ReadBinary(ctx context.Context, p string) ([]byte, error) {
	full, err := v.abs(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "no document at %s", p)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "read %s", p)
	}
	return data, nil
}

func (v *FSVault) WriteBinary(ctx context.Context, p string, data []byte) error {
	full, err := v.abs(p)
	if err != nil {
		return err
	}
	// MkdirAll is a no-op for existing folders, which keeps intermediate
	// directory creation idempotent.
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, err, "create folders for %s", p)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, err, "write %s", p)
	}
	return nil
}

func (v *FSVault) ListByEntity(ctx context.Context, entityType string) ([]*Document, error) {
	var docs []*Document
	err := filepath.WalkDir(v.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(v.root, full)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return err
		}
		doc, err := ParseDocument(filepath.ToSlash(rel), data)
		if err != nil {
			// Malformed front matter in one document should not break
			// listing the rest of the vault.
			return nil
		}
		if doc.FrontMatter.Entity == entityType {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "list %s entities", entityType)
	}
	return docs, nil
}

func (v *FSVault) ResolveLink(ctx context.Context, basename string) (string, bool, error) {
	var found string
	target := basename + ".md"
	err := filepath.WalkDir(v.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || found != "" {
			return nil
		}
		if d.Name() == target {
			rel, err := filepath.Rel(v.root, full)
			if err != nil {
				return err
			}
			found = filepath.ToSlash(rel)
		}
		return nil
	})
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeStoreRead, err, "resolve link %s", basename)
	}
	return found, found != "", nil
}

var _ Repository = (*FSVault)(nil)
