package cleaner

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// fixtureClusters are well-known cluster names used to populate a freshly
// created schema with test data.
var fixtureClusters = []ClusterName{
	"00000000-0000-0000-0000-000000000000",
	"11111111-1111-1111-1111-111111111111",
	"5d5892d4-1f74-4ccf-91af-548dfc9767aa",
}

const (
	insertReportStatement = `
		INSERT INTO report (org_id, cluster, report, reported_at, last_checked_at)
		VALUES ($1, $2, $3, $4, $5)`

	insertRuleToggleStatement = `
		INSERT INTO cluster_rule_toggle
		(cluster_id, rule_id, user_id, disabled, disabled_at, enabled_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertRuleFeedbackStatement = `
		INSERT INTO cluster_rule_user_feedback
		(cluster_id, rule_id, user_id, message, user_vote, added_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertDisableFeedbackStatement = `
		INSERT INTO cluster_user_rule_disable_feedback
		(cluster_id, user_id, rule_id, message, added_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	insertRuleHitStatement = `
		INSERT INTO rule_hit (org_id, cluster_id, rule_fqdn, error_key, template_data)
		VALUES ($1, $2, $3, $4, $5)`
)

// FillInDatabase inserts test rows for the well-known fixture clusters into
// every table the cleaner knows about.
//
// Reports are staggered a year apart starting two years back so that age
// thresholds like 90d and 3y select different subsets. Insert failures are
// logged per statement and all of them are joined into the returned error,
// so a partially created schema still gets rows for every table that does
// exist.
func FillInDatabase(ctx context.Context, db *sql.DB, now time.Time, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "fixtures").Logger()

	var errs []error

	exec := func(table, statement string, args ...interface{}) {
		if _, err := db.ExecContext(ctx, statement, args...); err != nil {
			logger.Error().Err(err).Str("table", table).Msg("Insert failed")
			errs = append(errs, err)
		}
	}

	for i, cluster := range fixtureClusters {
		reportedAt := now.AddDate(-2+i, 0, 0)

		exec(reportTable, insertReportStatement,
			i+1, string(cluster), "{}", reportedAt, reportedAt)
		exec("cluster_rule_toggle", insertRuleToggleStatement,
			string(cluster), "rule.test|KEY", i+1, 1, reportedAt, nil, reportedAt)
		exec("cluster_rule_user_feedback", insertRuleFeedbackStatement,
			string(cluster), "rule.test|KEY", i+1, "test feedback", 1, reportedAt, reportedAt)
		exec("cluster_user_rule_disable_feedback", insertDisableFeedbackStatement,
			string(cluster), i+1, "rule.test|KEY", "test feedback", reportedAt, reportedAt)
		exec("rule_hit", insertRuleHitStatement,
			i+1, string(cluster), "rule.test", "KEY", "{}")
	}

	if len(errs) == 0 {
		logger.Info().Int("clusters", len(fixtureClusters)).Msg("Database filled with test data")
		return nil
	}
	return errors.Join(errs...)
}
