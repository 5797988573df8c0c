package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"pcc-tenders/models"
)

// archiveColumns are the tenders table columns written per record, in the
// order archiveRow produces them.
var archiveColumns = []string{
	"query_agency", "category", "tender_no", "name", "budget", "publish_date",
	"unit", "url", "award_date", "award_type", "award_url",
}

// PostgresWriter archives normalized tenders in PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS tenders (
			id           SERIAL PRIMARY KEY,
			query_agency TEXT        NOT NULL,
			category     TEXT,
			tender_no    TEXT        NOT NULL DEFAULT '',
			name         TEXT        NOT NULL DEFAULT '',
			budget       TEXT,
			publish_date TEXT        NOT NULL DEFAULT '',
			unit         TEXT,
			url          TEXT,
			award_date   TEXT,
			award_type   TEXT,
			award_url    TEXT,
			fetched_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (query_agency, tender_no, name, publish_date)
		);

		CREATE INDEX IF NOT EXISTS idx_tenders_agency ON tenders(query_agency);
		CREATE INDEX IF NOT EXISTS idx_tenders_date   ON tenders(publish_date);
	`)
	return err
}

// WriteTable upserts the tender records of t. Sentinel rows are not
// archived, and only the first of several records sharing a key is kept
// since one upsert statement cannot touch a row twice.
func (pw *PostgresWriter) WriteTable(t *models.DisplayTable) error {
	rows := make([][]any, 0, t.Len())
	seen := make(map[string]struct{}, t.Len())
	for _, rec := range t.Records {
		if rec.IsSentinel() {
			continue
		}
		row := archiveRow(rec)
		key := fmt.Sprintf("%v\x00%v\x00%v\x00%v", row[0], row[2], row[3], row[5])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := pw.upsertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) upsertBatch(batch [][]any) error {
	n := len(archiveColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*n)

	for idx, row := range batch {
		placeholders := make([]string, n)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", idx*n+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs, row...)
	}

	query := fmt.Sprintf(`
		INSERT INTO tenders (%s)
		VALUES %s
		ON CONFLICT (query_agency, tender_no, name, publish_date) DO UPDATE SET
			award_date = EXCLUDED.award_date,
			award_type = EXCLUDED.award_type,
			award_url  = EXCLUDED.award_url,
			fetched_at = NOW()
	`, strings.Join(archiveColumns, ", "), strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert batch: %w", err)
	}
	return nil
}

// archiveRow flattens a record for the tenders table: key columns use ""
// for missing values, link cells are stored as bare URLs.
func archiveRow(rec models.DisplayRecord) []any {
	key := func(label string) string { return rec.Get(label).String() }
	opt := func(label string) sql.NullString { return rec.Get(label).NullString() }
	link := func(label string) sql.NullString {
		c := rec.Get(label)
		if href, ok := models.LinkHref(c.Value); ok {
			return sql.NullString{String: href, Valid: true}
		}
		return c.NullString()
	}

	return []any{
		rec.Agency,
		opt("分類"),
		key("標案案號"),
		key(models.NameLabel),
		opt("預算金額"),
		key("初次招標日"),
		opt("主管機關"),
		link(models.URLLabel),
		opt("決標日"),
		opt("決標狀態"),
		link(models.AwardURLLabel),
	}
}

// Count returns the number of archived tenders.
func (pw *PostgresWriter) Count() (int, error) {
	var n int
	if err := pw.db.QueryRow(`SELECT COUNT(*) FROM tenders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
