package cleaner

import (
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// PrintSummary renders a human-readable table of what the run did: how many
// cluster list entries were accepted and rejected, and how many rows each
// table lost. Tables with zero deletions are listed too, so the output shape
// is stable across runs.
func PrintSummary(w io.Writer, summary Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Summary", "Count"})

	table.Append([]string{"Proper cluster entries", strconv.Itoa(summary.ProperClusterEntries)})
	table.Append([]string{"Improper cluster entries", strconv.Itoa(summary.ImproperClusterEntries)})

	tables := make([]string, 0, len(summary.DeletionsForTable))
	for name := range summary.DeletionsForTable {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	total := 0
	for _, name := range tables {
		count := summary.DeletionsForTable[name]
		total += count
		table.Append([]string{"Deletions from table '" + name + "'", strconv.Itoa(count)})
	}

	table.SetFooter([]string{"Total deletions", strconv.Itoa(total)})
	table.Render()
}
