// Package scanner discovers Spiir export files in a directory tree.
package scanner

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spiir-tools/beanimport/internal/spiir"
)

// probeSize is how many bytes of a candidate file are read to check the
// header. Comfortably larger than the header line plus a BOM.
const probeSize = 4096

// Scanner walks a directory tree and identifies Spiir exports by header.
type Scanner struct {
	rootDir string
	parser  *spiir.Parser
}

// New creates a scanner for the given root directory.
func New(rootDir string) *Scanner {
	return &Scanner{
		rootDir: rootDir,
		parser:  spiir.NewParser(),
	}
}

// Result is the outcome of one scan: files to import and files looked at but
// skipped, both in lexical path order so a rescan of the same tree imports in
// the same order.
type Result struct {
	Matches []string
	Skipped []string
}

// Scan walks the tree. Every .csv file whose first line is the Spiir header
// is a match; other files are recorded as skipped. A file that cannot be
// probed is recorded as skipped too, so one unreadable file cannot abort the
// whole batch. Only a failure to walk the tree itself fails the scan.
func (s *Scanner) Scan() (*Result, error) {
	rootDir := expandHome(s.rootDir)

	var result Result
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ok, err := s.probe(path)
		if err != nil {
			result.Skipped = append(result.Skipped, path)
			return nil
		}
		if ok {
			result.Matches = append(result.Matches, path)
		} else {
			result.Skipped = append(result.Skipped, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	sort.Strings(result.Matches)
	sort.Strings(result.Skipped)
	return &result, nil
}

func (s *Scanner) probe(path string) (_ bool, err error) {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	header := make([]byte, probeSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	err = nil

	return s.parser.CanParse(path, header[:n]), nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
