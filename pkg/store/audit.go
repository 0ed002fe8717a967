// Package store persists the report audit trail in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/ymehili/fraudcheck/pkg/errors"
)

// AuditEntry records one completed report generation.
type AuditEntry struct {
	ID          int64     `json:"id"`
	RecordID    string    `json:"record_id"`
	RiskScore   float64   `json:"risk_score"`
	PageCount   int       `json:"page_count"`
	ArtifactSHA string    `json:"artifact_sha"`
	FileName    string    `json:"file_name"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AuditRepo reads and writes audit entries.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.WrapStore(err, errors.CodeStoreQuery, "failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.WrapStore(err, errors.CodeStoreQuery, "failed to reach database")
	}
	return db, nil
}

// Migrate creates the audit table if it does not exist.
func (r *AuditRepo) Migrate(ctx context.Context) error {
	const q = `
create table if not exists report_audit (
    id            bigserial primary key,
    record_id     text        not null,
    risk_score    double precision not null,
    page_count    integer     not null,
    artifact_sha  text        not null,
    file_name     text        not null,
    generated_at  timestamptz not null
)`
	if _, err := r.DB.ExecContext(ctx, q); err != nil {
		return errors.WrapStore(err, errors.CodeStoreQuery, "failed to create audit table")
	}
	return nil
}

// Insert records a completed generation and returns the entry id.
func (r *AuditRepo) Insert(ctx context.Context, e AuditEntry) (int64, error) {
	const q = `
insert into report_audit(record_id, risk_score, page_count, artifact_sha, file_name, generated_at)
values ($1,$2,$3,$4,$5,$6)
returning id`
	var id int64
	err := r.DB.QueryRowContext(ctx, q,
		e.RecordID, e.RiskScore, e.PageCount, e.ArtifactSHA, e.FileName, e.GeneratedAt).Scan(&id)
	if err != nil {
		return 0, errors.WrapStore(err, errors.CodeStoreInsert, "failed to insert audit entry").
			WithContext("record_id", e.RecordID)
	}
	return id, nil
}

// ListByRecord returns the generation history for one analysis record,
// newest first.
func (r *AuditRepo) ListByRecord(ctx context.Context, recordID string) ([]AuditEntry, error) {
	const q = `
select id, record_id, risk_score, page_count, artifact_sha, file_name, generated_at
from report_audit
where record_id=$1
order by generated_at desc`
	rows, err := r.DB.QueryContext(ctx, q, recordID)
	if err != nil {
		return nil, errors.WrapStore(err, errors.CodeStoreQuery, "failed to query audit trail").
			WithContext("record_id", recordID)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListRecent returns the most recent entries across all records.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
select id, record_id, risk_score, page_count, artifact_sha, file_name, generated_at
from report_audit
order by generated_at desc
limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, errors.WrapStore(err, errors.CodeStoreQuery, "failed to query recent entries")
	}
	defer rows.Close()

	return scanEntries(rows)
}

// PurgeOlderThan deletes entries past the retention window and reports how
// many were removed.
func (r *AuditRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `delete from report_audit where generated_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, errors.WrapStore(err, errors.CodeStoreQuery, "failed to purge audit entries")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.WrapStore(err, errors.CodeStoreQuery, "failed to count purged entries")
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]AuditEntry, error) {
	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.RecordID, &e.RiskScore, &e.PageCount,
			&e.ArtifactSHA, &e.FileName, &e.GeneratedAt); err != nil {
			return nil, errors.WrapStore(err, errors.CodeStoreQuery, "failed to scan audit entry")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore(err, errors.CodeStoreQuery, "failed to iterate audit entries")
	}
	return out, nil
}
