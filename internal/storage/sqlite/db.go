package sqlite

import (
	"context"
	"database/sql"
	"time"

	"indigo/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS deliveries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		delivery_id TEXT NOT NULL,
		event_type  TEXT NOT NULL DEFAULT '',
		entity_name TEXT DEFAULT '',
		outcome     TEXT NOT NULL,
		error       TEXT DEFAULT '',
		received_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_received_at ON deliveries(received_at);
	CREATE INDEX IF NOT EXISTS idx_deliveries_delivery_id ON deliveries(delivery_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func InsertDelivery(db *sql.DB, d domain.Delivery) error {
	_, err := db.Exec(
		`INSERT INTO deliveries (delivery_id, event_type, entity_name, outcome, error, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.DeliveryID, d.EventType, d.EntityName, string(d.Outcome), d.Error, d.ReceivedAt.UTC(),
	)
	return err
}

// DeliveryExists reports whether deliveryID was journaled with the given
// outcome. An empty outcome matches any.
func DeliveryExists(db *sql.DB, deliveryID string, outcome domain.Outcome) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM deliveries WHERE delivery_id = ? AND (? = '' OR outcome = ?)`,
		deliveryID, string(outcome), string(outcome),
	).Scan(&count)
	return count > 0, err
}

func GetRecentDeliveries(db *sql.DB, limit int) ([]domain.Delivery, error) {
	rows, err := db.Query(
		`SELECT id, delivery_id, event_type, entity_name, outcome, error, received_at
		 FROM deliveries
		 ORDER BY received_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		var outcome string
		if err := rows.Scan(
			&d.ID, &d.DeliveryID, &d.EventType, &d.EntityName,
			&outcome, &d.Error, &d.ReceivedAt,
		); err != nil {
			return nil, err
		}
		d.Outcome = domain.Outcome(outcome)
		out = append(out, d)
	}
	return out, rows.Err()
}

func CountDeliveriesByOutcome(db *sql.DB, since time.Time) ([]domain.OutcomeCount, error) {
	rows, err := db.Query(
		`SELECT outcome, COUNT(*) AS cnt
		 FROM deliveries
		 WHERE received_at >= ?
		 GROUP BY outcome
		 ORDER BY cnt DESC, outcome`,
		since.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OutcomeCount
	for rows.Next() {
		var c domain.OutcomeCount
		var outcome string
		if err := rows.Scan(&outcome, &c.Count); err != nil {
			return nil, err
		}
		c.Outcome = domain.Outcome(outcome)
		out = append(out, c)
	}
	return out, rows.Err()
}

// PruneDeliveriesBefore deletes journal rows received before cutoff and
// returns how many were removed.
func PruneDeliveriesBefore(db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM deliveries WHERE received_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Journal records deliveries into the database.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

func (j *Journal) RecordDelivery(d domain.Delivery) error {
	return InsertDelivery(j.db, d)
}

// DeliveryExists only counts deliveries that were processed, so a rejected
// attempt does not hide a valid resend.
func (j *Journal) DeliveryExists(deliveryID string) (bool, error) {
	return DeliveryExists(j.db, deliveryID, domain.OutcomeProcessed)
}

// Ping reports whether the database is reachable.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}
