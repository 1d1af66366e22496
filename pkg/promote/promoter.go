package promote

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const backupSuffix = ".bak"

// Promoter copies qualifying artifacts into the deployment slot.
type Promoter struct {
	deployPath string
}

// New returns a promoter targeting the given slot. The slot may be a file
// path that is overwritten on each promotion, or an existing directory that
// collects promoted artifacts under their own names.
func New(deployPath string) *Promoter {
	return &Promoter{deployPath: deployPath}
}

// DeployPath returns the configured slot.
func (p *Promoter) DeployPath() string {
	return p.deployPath
}

// Promote installs the candidate into the slot and returns the path actually
// written. When the slot is an occupied file, the current occupant is copied
// aside with a .bak suffix first, so the previous network survives exactly
// one promotion. Directory slots keep every artifact and need no backup.
func (p *Promoter) Promote(candidate string) (string, error) {
	if dir := filepath.Dir(p.deployPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create deploy directory: %w", err)
		}
	}

	info, err := os.Stat(p.deployPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to inspect deploy path: %w", err)
	}

	if err == nil && info.Mode().IsRegular() {
		if err := copyFile(p.deployPath, p.deployPath+backupSuffix); err != nil {
			return "", fmt.Errorf("failed to back up deployed artifact: %w", err)
		}
	}

	dest := p.deployPath
	if err == nil && info.IsDir() {
		dest = filepath.Join(p.deployPath, filepath.Base(candidate))
	}
	if err := copyFile(candidate, dest); err != nil {
		return "", fmt.Errorf("failed to deploy candidate: %w", err)
	}
	return dest, nil
}

// copyFile copies src to dst preserving the source's permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
