package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/deskmate/internal/db"
	"github.com/ziadkadry99/deskmate/internal/dispatch"
	"github.com/ziadkadry99/deskmate/internal/intent"
)

// ErrNotFound is returned by GetByID for an unknown id.
var ErrNotFound = errors.New("journal entry not found")

const columns = "id, timestamp, user_id, intent, collaborator, operation, success, message, params"

// Store provides CRUD operations for journal entries.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Log inserts a new entry. If entry.ID is empty a UUID is generated and a
// zero Timestamp is set to now.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	params := []byte("{}")
	if len(entry.Params) > 0 {
		var err error
		if params, err = json.Marshal(entry.Params); err != nil {
			return fmt.Errorf("marshalling params: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(time.DateTime),
		entry.UserID,
		string(entry.Intent),
		entry.Collaborator,
		entry.Operation,
		entry.Success,
		entry.Message,
		string(params),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// RecordDispatch journals the outcome of one dispatched intent.
func (s *Store) RecordDispatch(ctx context.Context, userID string, tag intent.Tag, res dispatch.ActionResult) error {
	e := Entry{
		UserID:  userID,
		Intent:  tag,
		Success: res.Success,
		Message: res.Message,
	}
	if res.Call != nil {
		e.Collaborator = res.Call.Collaborator
		e.Operation = res.Call.Operation
		e.Params = res.Call.Params
	}
	return s.Log(ctx, e)
}

// GetByID retrieves a single entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM journal_entries WHERE id = ?", id)
	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// QueryFilter controls which entries are returned by Query.
type QueryFilter struct {
	UserID       string
	Intent       intent.Tag
	Collaborator string
	Success      *bool
	Since        *time.Time
	Until        *time.Time
	Limit        int
	Offset       int
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Intent != "" {
		clauses = append(clauses, "intent = ?")
		args = append(args, string(filter.Intent))
	}
	if filter.Collaborator != "" {
		clauses = append(clauses, "collaborator = ?")
		args = append(args, filter.Collaborator)
	}
	if filter.Success != nil {
		clauses = append(clauses, "success = ?")
		args = append(args, *filter.Success)
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := "SELECT " + columns + " FROM journal_entries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Summarize counts entries overall and per intent.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	sum := Summary{ByIntent: map[intent.Tag]int{}}
	rows, err := s.db.QueryContext(ctx,
		"SELECT intent, success, COUNT(*) FROM journal_entries GROUP BY intent, success")
	if err != nil {
		return sum, fmt.Errorf("summarizing journal: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tag     string
			success bool
			n       int
		)
		if err := rows.Scan(&tag, &success, &n); err != nil {
			return sum, err
		}
		sum.Total += n
		sum.ByIntent[intent.Tag(tag)] += n
		if success {
			sum.Succeeded += n
		} else {
			sum.Failed += n
		}
	}
	return sum, rows.Err()
}

// DeleteBefore removes all entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM journal_entries WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old journal entries: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e          Entry
		tag, ts    string
		paramsJSON string
	)

	err := sc.Scan(
		&e.ID, &ts, &e.UserID, &tag, &e.Collaborator, &e.Operation,
		&e.Success, &e.Message, &paramsJSON,
	)
	if err != nil {
		return nil, err
	}
	e.Intent = intent.Tag(tag)

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.Timestamp = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.Timestamp = t
	}

	if err := json.Unmarshal([]byte(paramsJSON), &e.Params); err != nil || len(e.Params) == 0 {
		e.Params = nil
	}
	return &e, nil
}
