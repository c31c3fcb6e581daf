package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

const baseHistorySelect = `SELECT id, listing_id, config_id, rule_id,
	COALESCE(rule_name, ''), old_price, new_price, COALESCE(reason, ''), dry_run, created_at
FROM reprice_history`

const countHistorySelect = "SELECT COUNT(*) FROM reprice_history"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a history
// query. It returns two SQL strings (one for the data query, one for the
// count query) and the positional parameters.
func (q *HistoryQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.ListingID != nil {
		conditions = append(conditions, fmt.Sprintf("listing_id = $%d", paramIdx))
		args = append(args, *q.ListingID)
		paramIdx++
	}

	if q.ConfigID != nil {
		conditions = append(conditions, fmt.Sprintf("config_id = $%d", paramIdx))
		args = append(args, *q.ConfigID)
		paramIdx++
	}

	if q.RuleID != nil {
		conditions = append(conditions, fmt.Sprintf("rule_id = $%d", paramIdx))
		args = append(args, *q.RuleID)
		paramIdx++
	}

	if q.RuleName != nil {
		conditions = append(conditions, fmt.Sprintf("rule_name ILIKE $%d", paramIdx))
		args = append(args, *q.RuleName)
		paramIdx++
	}

	if q.Since != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", paramIdx))
		args = append(args, *q.Since)
		paramIdx++
	}

	if q.Until != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", paramIdx))
		args = append(args, *q.Until)
		paramIdx++
	}

	if q.DryRun != nil {
		conditions = append(conditions, fmt.Sprintf("dry_run = $%d", paramIdx))
		args = append(args, *q.DryRun)
		paramIdx++
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := q.PageBounds()

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		baseHistorySelect, whereClause, limit, offset,
	)

	countSQL = countHistorySelect + whereClause

	return dataSQL, countSQL, args
}

// PageBounds returns the limit and offset the query will use after
// clamping: limit defaults to 50 and caps at 500, offset floors at 0.
func (q *HistoryQuery) PageBounds() (limit, offset int) {
	limit = q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, max(q.Offset, 0)
}
