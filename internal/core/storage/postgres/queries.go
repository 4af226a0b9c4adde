package postgres

// SQL for the item catalog and the snapshot history.
// Every series query returns rows newest first; the analytics engine relies on it.

const (
	itemColumns = `id, source_id, name, url, author, category, created_at, updated_at`

	// queryInsertItem creates an item unless one with the same url exists.
	// url is the natural dedup key, so re-running catalog reconciliation is a no-op.
	queryInsertItem = `
		INSERT INTO items (id, source_id, name, url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO NOTHING
	`

	queryListItems = `
		SELECT ` + itemColumns + `
		FROM items
		ORDER BY name ASC, id ASC
	`

	queryGetItem = `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = $1
	`

	queryListScanTargets = `
		SELECT id, source_id
		FROM items
		ORDER BY created_at ASC, id ASC
	`

	// queryUpdateItemDetails keeps stored values for NULL arguments.
	queryUpdateItemDetails = `
		UPDATE items
		SET author = COALESCE($2, author),
		    category = COALESCE($3, category),
		    updated_at = $4
		WHERE id = $1
	`

	snapshotColumns = `item_id, scanned_at, sales_count, price`

	queryAppendSnapshot = `
		INSERT INTO snapshots (item_id, scanned_at, sales_count, price)
		VALUES ($1, $2, $3, $4)
	`

	queryListSnapshots = `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE item_id = $1
		  AND scanned_at >= $2
		ORDER BY scanned_at DESC
	`

	queryListSnapshotsBatch = `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE item_id = ANY($1::uuid[])
		  AND scanned_at >= $2
		ORDER BY item_id, scanned_at DESC
	`

	queryLatestSnapshots = `
		SELECT DISTINCT ON (item_id) ` + snapshotColumns + `
		FROM snapshots
		WHERE item_id = ANY($1::uuid[])
		ORDER BY item_id, scanned_at DESC
	`

	queryOldestSnapshotTime = `SELECT MIN(scanned_at) FROM snapshots`
	queryNewestSnapshotTime = `SELECT MAX(scanned_at) FROM snapshots`
)
