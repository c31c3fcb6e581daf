package store

// SQL query constants organized by entity.
// All SQL lives here; PostgresStore methods reference these constants.

// Rule queries.
const (
	queryCreateRule = `
		INSERT INTO rules (
			name, platform, family, category, sku_pattern,
			params, priority, enabled, time_window, created_at, updated_at
		) VALUES (
			@name, @platform, @family, @category, @sku_pattern,
			@params, @priority, @enabled, @time_window, now(), now()
		)
		RETURNING id, created_at, updated_at`

	queryGetRule = `
		SELECT id, name, platform, family, category, sku_pattern,
			params, priority, enabled, time_window, created_at, updated_at
		FROM rules
		WHERE id = $1`

	queryListRules = `
		SELECT id, name, platform, family, category, sku_pattern,
			params, priority, enabled, time_window, created_at, updated_at
		FROM rules
		WHERE ($1::bool IS FALSE OR enabled)
		ORDER BY priority DESC, created_at ASC, id ASC`

	queryUpdateRule = `
		UPDATE rules SET
			name = @name,
			platform = @platform,
			family = @family,
			category = @category,
			sku_pattern = @sku_pattern,
			params = @params,
			priority = @priority,
			enabled = @enabled,
			time_window = @time_window,
			updated_at = now()
		WHERE id = @id
		RETURNING updated_at`

	queryDeleteRule     = `DELETE FROM rules WHERE id = $1`
	querySetRuleEnabled = `UPDATE rules SET enabled = $2, updated_at = now() WHERE id = $1`
)

// Cross-platform rule queries.
const (
	queryCreateCrossPlatformRule = `
		INSERT INTO cross_platform_rules (
			name, watched_platform, adjusted_platform, trigger_kind,
			adjustment_pct, min_price, enabled, created_at, updated_at
		) VALUES (
			@name, @watched_platform, @adjusted_platform, @trigger_kind,
			@adjustment_pct, @min_price, @enabled, now(), now()
		)
		RETURNING id, created_at, updated_at`

	queryListCrossPlatformRules = `
		SELECT id, name, watched_platform, adjusted_platform, trigger_kind,
			adjustment_pct, min_price, enabled, created_at, updated_at
		FROM cross_platform_rules
		WHERE ($1::bool IS FALSE OR enabled)
		ORDER BY created_at ASC`

	queryDeleteCrossPlatformRule = `DELETE FROM cross_platform_rules WHERE id = $1`
)

// Price observation queries.
const (
	queryRecordPriceObservation = `
		INSERT INTO price_observations (platform, sku, price, observed_at)
		VALUES ($1, $2, $3, $4)`

	// Newest rows first under the limit, flipped back to oldest-first so
	// callers see chronological order.
	queryListPriceObservations = `
		SELECT price, observed_at FROM (
			SELECT price, observed_at
			FROM price_observations
			WHERE platform = $1 AND sku = $2
			ORDER BY observed_at DESC
			LIMIT $3
		) recent
		ORDER BY observed_at ASC`
)

// Daemon config queries.
const (
	queryCreateConfig = `
		INSERT INTO daemon_configs (
			name, enabled, dry_run, batch_size, interval_ms, cooldown_ms,
			strategies, min_price, max_price, max_change_pct,
			platforms, active_only, created_at, updated_at
		) VALUES (
			@name, @enabled, @dry_run, @batch_size, @interval_ms, @cooldown_ms,
			@strategies, @min_price, @max_price, @max_change_pct,
			@platforms, @active_only, now(), now()
		)
		RETURNING id, created_at, updated_at`

	queryGetConfig = `
		SELECT id, name, enabled, dry_run, batch_size, interval_ms, cooldown_ms,
			strategies, min_price, max_price, max_change_pct,
			platforms, active_only, total_cycles, total_changes,
			created_at, updated_at
		FROM daemon_configs
		WHERE id = $1`

	queryListConfigs = `
		SELECT id, name, enabled, dry_run, batch_size, interval_ms, cooldown_ms,
			strategies, min_price, max_price, max_change_pct,
			platforms, active_only, total_cycles, total_changes,
			created_at, updated_at
		FROM daemon_configs
		WHERE ($1::bool IS FALSE OR enabled)
		ORDER BY created_at ASC`

	queryUpdateConfig = `
		UPDATE daemon_configs SET
			name = @name,
			enabled = @enabled,
			dry_run = @dry_run,
			batch_size = @batch_size,
			interval_ms = @interval_ms,
			cooldown_ms = @cooldown_ms,
			strategies = @strategies,
			min_price = @min_price,
			max_price = @max_price,
			max_change_pct = @max_change_pct,
			platforms = @platforms,
			active_only = @active_only,
			updated_at = now()
		WHERE id = @id
		RETURNING updated_at`

	queryDeleteConfig     = `DELETE FROM daemon_configs WHERE id = $1`
	querySetConfigEnabled = `UPDATE daemon_configs SET enabled = $2, updated_at = now() WHERE id = $1`

	queryIncrementConfigTotals = `
		UPDATE daemon_configs SET
			total_cycles = total_cycles + $2,
			total_changes = total_changes + $3,
			updated_at = now()
		WHERE id = $1`
)

// Listing queries.
const (
	queryUpsertListing = `
		INSERT INTO listings (
			sku, platform, external_id, title, category,
			current_price, cost_price, landed_cost, shipping_cost, currency,
			active, listed_at, created_at, updated_at
		) VALUES (
			@sku, @platform, @external_id, @title, @category,
			@current_price, @cost_price, @landed_cost, @shipping_cost, @currency,
			@active, @listed_at, now(), now()
		)
		ON CONFLICT (platform, external_id) DO UPDATE SET
			sku = EXCLUDED.sku,
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			current_price = EXCLUDED.current_price,
			cost_price = EXCLUDED.cost_price,
			landed_cost = EXCLUDED.landed_cost,
			shipping_cost = EXCLUDED.shipping_cost,
			currency = EXCLUDED.currency,
			active = EXCLUDED.active,
			listed_at = EXCLUDED.listed_at,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	listingColumns = `id, sku, platform, external_id, COALESCE(title, ''), COALESCE(category, ''),
		current_price, cost_price, landed_cost, shipping_cost, currency,
		active, listed_at, last_repriced_at, created_at, updated_at`

	queryGetListing = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE id = $1`

	queryListEligibleListings = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE ($1::bool IS FALSE OR active)
		  AND (cardinality($2::text[]) = 0 OR platform = ANY($2::text[]))
		ORDER BY sku ASC, platform ASC
		LIMIT $3`

	queryUpdateListingPrice = `
		UPDATE listings SET
			current_price = $2,
			last_repriced_at = $3,
			updated_at = now()
		WHERE id = $1`
)

// History queries.
const (
	queryAppendHistory = `
		INSERT INTO reprice_history (
			listing_id, config_id, rule_id, rule_name,
			old_price, new_price, reason, dry_run, created_at
		) VALUES (
			@listing_id, @config_id, @rule_id, @rule_name,
			@old_price, @new_price, @reason, @dry_run, now()
		)
		RETURNING id, created_at`

	queryRepriceStatsTotals = `
		SELECT COUNT(*),
			COALESCE(AVG(CASE WHEN old_price > 0
				THEN (new_price - old_price) / old_price * 100
				ELSE 0 END), 0)
		FROM reprice_history
		WHERE ($1::uuid IS NULL OR config_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)`

	queryRepriceStatsByStrategy = `
		SELECT COALESCE(NULLIF(rule_name, ''), 'unknown'), COUNT(*)
		FROM reprice_history
		WHERE ($1::uuid IS NULL OR config_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		GROUP BY 1
		ORDER BY 2 DESC`

	queryRepriceStatsByDay = `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
		FROM reprice_history
		WHERE ($1::uuid IS NULL OR config_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		GROUP BY 1
		ORDER BY 1 ASC`
)

// Cycle run queries.
const (
	queryInsertCycleRun = `
		INSERT INTO cycle_runs (config_id, started_at, status)
		VALUES ($1, now(), 'running')
		RETURNING id`

	queryCompleteCycleRun = `
		UPDATE cycle_runs SET
			completed_at = now(),
			status = $2,
			error_text = $3,
			processed = $4,
			changed = $5,
			blocked = $6,
			failed = $7
		WHERE id = $1`

	queryListCycleRuns = `
		SELECT id, config_id, started_at, completed_at, status,
			COALESCE(error_text, ''), processed, changed, blocked, failed
		FROM cycle_runs
		WHERE ($1::uuid IS NULL OR config_id = $1)
		ORDER BY started_at DESC
		LIMIT $2`

	queryRecoverStaleCycleRuns = `
		UPDATE cycle_runs SET
			status = 'crashed',
			completed_at = now(),
			error_text = 'marked crashed by stale run recovery'
		WHERE status = 'running' AND started_at < now() - $1::interval`

	queryDeleteOldCycleRuns = `
		DELETE FROM cycle_runs
		WHERE status <> 'running' AND started_at < now() - $1::interval`
)

// Cycle lock queries.
const (
	queryAcquireCycleLock = `
		INSERT INTO cycle_locks (config_id, holder, expires_at)
		VALUES ($1, $2, now() + $3::interval)
		ON CONFLICT (config_id) DO UPDATE SET
			holder = EXCLUDED.holder,
			expires_at = EXCLUDED.expires_at
		WHERE cycle_locks.expires_at < now() OR cycle_locks.holder = EXCLUDED.holder
		RETURNING config_id`

	queryReleaseCycleLock = `
		DELETE FROM cycle_locks
		WHERE config_id = $1 AND holder = $2`
)

// System state query.
const querySystemState = `
	SELECT
		(SELECT COUNT(*) FROM rules),
		(SELECT COUNT(*) FROM rules WHERE enabled),
		(SELECT COUNT(*) FROM daemon_configs),
		(SELECT COUNT(*) FROM daemon_configs WHERE enabled),
		(SELECT COUNT(*) FROM listings),
		(SELECT COUNT(*) FROM listings WHERE active),
		(SELECT COUNT(*) FROM reprice_history WHERE created_at > now() - interval '24 hours'),
		(SELECT COALESCE(SUM(blocked), 0) FROM cycle_runs WHERE started_at > now() - interval '24 hours'),
		(SELECT COUNT(*) FROM cycle_runs WHERE status = 'running')`
