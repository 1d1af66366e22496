// Package fetch downloads the published baseline networks a fresh
// deployment needs before the first gauntlet can run.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Network describes one downloadable evaluation network. An empty SHA256
// skips verification.
type Network struct {
	Name   string
	URL    string
	SHA256 string
}

var knownNetworks = map[string]Network{
	"nn-1c0000000000.nnue": {
		Name: "nn-1c0000000000.nnue",
		URL:  "https://tests.stockfishchess.org/api/nn/nn-1c0000000000.nnue",
	},
	"nn-37f18f62d772.nnue": {
		Name: "nn-37f18f62d772.nnue",
		URL:  "https://tests.stockfishchess.org/api/nn/nn-37f18f62d772.nnue",
	},
}

// Names lists the known networks in sorted order.
func Names() []string {
	names := make([]string, 0, len(knownNetworks))
	for name := range knownNetworks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a network by name.
func Lookup(name string) (Network, bool) {
	network, ok := knownNetworks[name]
	return network, ok
}

// Client downloads networks into a target directory.
type Client struct {
	httpClient *http.Client
	outputDir  string
	force      bool
	stdout     io.Writer
	stderr     io.Writer
}

// NewClient returns a client writing under outputDir. With force set,
// existing files are re-downloaded instead of skipped.
func NewClient(outputDir string, force bool, stdout, stderr io.Writer) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		outputDir:  outputDir,
		force:      force,
		stdout:     stdout,
		stderr:     stderr,
	}
}

// Fetch downloads the named networks, verifying checksums where known.
// Individual download failures are reported and the rest continue; the
// returned error summarizes how many failed.
func (c *Client) Fetch(ctx context.Context, names []string) error {
	if len(names) == 0 {
		names = Names()
	}
	for _, name := range names {
		if _, ok := knownNetworks[name]; !ok {
			return fmt.Errorf("unknown network %q (known: %s)", name, strings.Join(Names(), ", "))
		}
	}

	failed := 0
	for _, name := range names {
		network := knownNetworks[name]
		target := filepath.Join(c.outputDir, name)

		if _, err := os.Stat(target); err == nil && !c.force {
			fmt.Fprintf(c.stdout, "Skipping %s: already exists at %s (use --force to overwrite).\n", name, target)
			continue
		}

		fmt.Fprintf(c.stdout, "Downloading %s...\n", name)
		if err := c.download(ctx, network.URL, target); err != nil {
			fmt.Fprintf(c.stderr, "Failed to download %s: %v\n", name, err)
			os.Remove(target)
			failed++
			continue
		}

		if !c.verify(target, network.SHA256) {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to fetch %d of %d networks", failed, len(names))
	}
	return nil
}

func (c *Client) download(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// verify reports whether the file matches its published checksum, printing
// the mismatch for the operator. An empty expected sum always passes.
func (c *Client) verify(path, expected string) bool {
	if expected == "" {
		return true
	}
	actual, err := sha256Sum(path)
	if err != nil {
		fmt.Fprintf(c.stderr, "Failed to checksum %s: %v\n", filepath.Base(path), err)
		return false
	}
	if !strings.EqualFold(actual, expected) {
		fmt.Fprintf(c.stderr, "Checksum mismatch for %s: expected %s, got %s.\n", filepath.Base(path), expected, actual)
		return false
	}
	return true
}

func sha256Sum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	digest := sha256.New()
	if _, err := io.Copy(digest, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
