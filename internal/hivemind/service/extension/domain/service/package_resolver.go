package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/pkg/errno"
)

// DirResolver resolves package names against a list of package roots.
// "@org/name" maps to <root>/@org/name; the first root holding a manifest wins.
type DirResolver struct {
	Roots []string
}

var _ PackageResolver = (*DirResolver)(nil)

// NewDirResolver creates a resolver over roots.
func NewDirResolver(roots ...string) *DirResolver {
	return &DirResolver{Roots: roots}
}

func (r *DirResolver) Resolve(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" || strings.Contains(clean, "..") {
		return "", fmt.Errorf("%w: invalid package name %q", errno.ErrPackageNotFound, name)
	}
	for _, root := range r.Roots {
		dir := filepath.Join(root, filepath.FromSlash(clean))
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if _, err := manifest.FindFile(dir); err != nil {
			continue
		}
		return filepath.Abs(dir)
	}
	return "", fmt.Errorf("%w: %q not found in %s", errno.ErrPackageNotFound, name, strings.Join(r.Roots, ", "))
}
