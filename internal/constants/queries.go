package constants

// Reporting queries run through sqlx. Placeholders are written as ? and
// rebound for the active driver.
const (
	CountRosterGuests = `
	SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN is_checked THEN 1 ELSE 0 END), 0) AS entered,
		COALESCE(SUM(CASE WHEN is_new_arrival THEN 1 ELSE 0 END), 0) AS new_arrivals
	FROM guests
	`

	CountHistoryEntries = `
	SELECT COUNT(*) FROM history_logs
	`

	// Best attendance per day, used by the reporting endpoint.
	DailyHistoryPeaks = `
	SELECT
		CAST(DATE(date_logged) AS TEXT) AS day,
		MAX(entered_count) AS peak_entered,
		MAX(total_guests) AS peak_total,
		COUNT(*) AS replacements
	FROM history_logs
	WHERE date_logged >= ?
	GROUP BY DATE(date_logged)
	ORDER BY day ASC
	`
)
