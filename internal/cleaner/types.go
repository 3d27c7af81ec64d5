// Package cleaner implements the retention-cleanup engine: selection of aged
// report records, read-only listing, transactional deletion across dependent
// tables, and the per-run summary.
package cleaner

// ClusterName is a cluster identifier in UUID form,
// e.g. c8590f31-e97e-4b85-b506-c45ce1911a12.
type ClusterName string

// ClusterList is an allow-list of cluster names restricting the scope of one
// run. An empty list means every cluster is eligible.
type ClusterList []ClusterName

// Primary table layout. Every record in the report table belongs to exactly
// one cluster and carries the timestamp used for age-based retention.
const (
	reportTable     = "report"
	reportKey       = "cluster"
	reportTimestamp = "reported_at"
)

// TableAndKey names a dependent table together with the column referencing
// report rows.
type TableAndKey struct {
	TableName string
	KeyName   string
}

// dependentTables lists every table holding rows that must not outlive the
// report record they reference. Deletion order is dependents first, then the
// report table itself, to preserve referential consistency.
var dependentTables = []TableAndKey{
	{TableName: "cluster_rule_toggle", KeyName: "cluster_id"},
	{TableName: "cluster_rule_user_feedback", KeyName: "cluster_id"},
	{TableName: "cluster_user_rule_disable_feedback", KeyName: "cluster_id"},
	{TableName: "rule_hit", KeyName: "cluster_id"},
}

// KnownTables returns the names of all tables one cleanup pass inspects,
// dependents first and the report table last.
func KnownTables() []string {
	tables := make([]string, 0, len(dependentTables)+1)
	for _, t := range dependentTables {
		tables = append(tables, t.TableName)
	}
	return append(tables, reportTable)
}

// CleanupResult holds per-table deleted-row counts for one cleanup pass.
// Every known table has an entry, including tables that were absent from the
// schema or simply had nothing to delete.
type CleanupResult struct {
	DeletionsForTable map[string]int
}

func newCleanupResult() *CleanupResult {
	result := &CleanupResult{DeletionsForTable: make(map[string]int)}
	for _, table := range KnownTables() {
		result.DeletionsForTable[table] = 0
	}
	return result
}

// TotalDeletions sums the deleted rows across all tables.
func (r *CleanupResult) TotalDeletions() int {
	total := 0
	for _, n := range r.DeletionsForTable {
		total += n
	}
	return total
}

// Summary aggregates one run's cluster-list accounting and deletion counts
// for the summary table.
type Summary struct {
	ProperClusterEntries   int
	ImproperClusterEntries int
	DeletionsForTable      map[string]int
}
