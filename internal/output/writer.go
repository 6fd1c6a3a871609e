// Package output writes the generated ledger to disk: one file per calendar
// year plus a main file carrying options, includes, and open directives.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spiir-tools/beanimport/internal/domain"
	"github.com/spiir-tools/beanimport/internal/render"
	"github.com/spiir-tools/beanimport/internal/transform"
)

// MainFileName is the entry-point ledger file.
const MainFileName = "main.bean"

// generatorName appears in the header comment of every year file.
const generatorName = "beanimport"

// YearFileName returns the file name for one year's ledger.
func YearFileName(year int) string {
	return fmt.Sprintf("%d.bean", year)
}

// WriteYearFile writes one year group: two comment lines, opening balances,
// then transactions. The group's internal order is preserved as produced by
// the partitioner.
func WriteYearFile(w io.Writer, group *transform.YearGroup) error {
	if _, err := fmt.Fprintf(w, "; Spiir import for %d\n; Generated by %s\n\n",
		group.Year, generatorName); err != nil {
		return err
	}

	for i := range group.Openings {
		if err := render.WriteTransaction(w, &group.Openings[i]); err != nil {
			return err
		}
	}
	for i := range group.Transactions {
		if err := render.WriteTransaction(w, &group.Transactions[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteMainFile writes the entry-point ledger: operating options, one include
// per year in ascending order, then open directives sorted by account.
func WriteMainFile(w io.Writer, years []int, opens []domain.Open) error {
	if _, err := fmt.Fprintf(w, "option \"operating_currency\" %q\noption \"booking_method\" \"FIFO\"\n\n",
		domain.Currency); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "; --- Spiir imports ---\n"); err != nil {
		return err
	}
	for _, year := range years {
		if _, err := fmt.Fprintf(w, "include %q\n", YearFileName(year)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\n; --- Spiir accounts ---\n"); err != nil {
		return err
	}
	for i := range opens {
		if err := render.WriteOpen(w, &opens[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteLedger writes all year files and the main file into dir, creating it
// if needed. Returns the list of written file names in write order.
func WriteLedger(dir string, groups []transform.YearGroup, opens []domain.Open) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	var written []string
	years := make([]int, 0, len(groups))
	for i := range groups {
		group := &groups[i]
		years = append(years, group.Year)

		name := YearFileName(group.Year)
		if err := writeFile(filepath.Join(dir, name), func(w io.Writer) error {
			return WriteYearFile(w, group)
		}); err != nil {
			return nil, err
		}
		written = append(written, name)
	}

	if err := writeFile(filepath.Join(dir, MainFileName), func(w io.Writer) error {
		return WriteMainFile(w, years, opens)
	}); err != nil {
		return nil, err
	}
	written = append(written, MainFileName)

	return written, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	if err = write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
