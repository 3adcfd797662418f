// Package report renders a finished scan for non-interactive output.
package report

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/riadafridishibly/foldersize/scanner"
	"github.com/riadafridishibly/foldersize/service"
)

// TabSpacing is the number of spaces between tabwriter columns.
const TabSpacing = 2

// BySize returns a copy of results ordered largest first, ties by path.
func BySize(results []scanner.Result) []scanner.Result {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b scanner.Result) int {
		if c := cmp.Compare(b.SizeBytes, a.SizeBytes); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return sorted
}

// Totals sums the results.
func Totals(results []scanner.Result) scanner.Result {
	var t scanner.Result
	for _, r := range results {
		t.SizeBytes += r.SizeBytes
		t.FileCount += r.FileCount
		t.ErrorCount += r.ErrorCount
	}
	return t
}

// GroupDigits formats n with a space between thousands, e.g. 1 234 567.
func GroupDigits(n int64) string {
	return strings.ReplaceAll(humanize.Comma(n), ",", " ")
}

type jsonOutcome struct {
	service.Outcome
	Large []string `json:"large"`
	Total int64    `json:"total_bytes"`
}

// PrintJSON writes the outcome as indented JSON.
func PrintJSON(w io.Writer, o service.Outcome) error {
	large := make([]string, 0, len(o.Large))
	for p := range o.Large {
		large = append(large, p)
	}
	slices.Sort(large)

	data, err := json.MarshalIndent(jsonOutcome{Outcome: o, Large: large, Total: Totals(o.Results).SizeBytes}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// PrintTable writes a size-ordered table with outliers marked by "!".
func PrintTable(w io.Writer, o service.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintf(tw, "\n%s\n\n", o.Root)
	fmt.Fprintln(tw, "\tSIZE\tBYTES\tFILES\tERRORS\tFOLDER")

	total := Totals(o.Results)
	for _, r := range BySize(o.Results) {
		mark := ""
		if o.IsLarge(r.Path) {
			mark = "!"
		}
		pct := 0.0
		if total.SizeBytes > 0 {
			pct = 100.0 * float64(r.SizeBytes) / float64(total.SizeBytes)
		}
		fmt.Fprintf(tw, "%s\t%s (%.1f%%)\t%s\t%d\t%d\t%s\n",
			mark,
			humanize.IBytes(uint64(r.SizeBytes)), //nolint:gosec // sizes are never negative
			pct,
			GroupDigits(r.SizeBytes),
			r.FileCount,
			r.ErrorCount,
			filepath.Base(r.Path),
		)
	}

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Folders:\t%d\n", len(o.Results))
	fmt.Fprintf(tw, "Total size:\t%s (%s bytes)\n", humanize.IBytes(uint64(total.SizeBytes)), GroupDigits(total.SizeBytes)) //nolint:gosec // never negative
	fmt.Fprintf(tw, "Files:\t%s\n", humanize.Comma(total.FileCount))
	if total.ErrorCount > 0 {
		fmt.Fprintf(tw, "Unreadable entries:\t%d\n", total.ErrorCount)
	}
	if len(o.Large) > 0 {
		fmt.Fprintf(tw, "Unusually large:\t%d\n", len(o.Large))
	}
	if o.Cancelled {
		fmt.Fprintln(tw, "Scan cancelled:\tresults are partial")
	}
	fmt.Fprintf(tw, "Elapsed:\t%v\n", o.Elapsed)

	return tw.Flush()
}
