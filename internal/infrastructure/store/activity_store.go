package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ActivityPageSize is the number of activity entries per page.
const ActivityPageSize = 10

// ActivityEntry is one row of the activity log.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

type ActivityQuery struct {
	Page   int
	Search string
}

type ActivityPage struct {
	Entries    []ActivityEntry `json:"entries"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
	Search     string          `json:"search,omitempty"`
}

// ActivityStore appends to and pages through the activity log.
type ActivityStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewActivityStore(db *sql.DB, dialect Dialect) *ActivityStore {
	return &ActivityStore{db: db, dialect: dialect}
}

// Append writes one entry. A zero UserID is stored as NULL.
func (s *ActivityStore) Append(ctx context.Context, e ActivityEntry) error {
	userID := sql.NullInt64{Int64: e.UserID, Valid: e.UserID > 0}
	if e.Severity == "" {
		e.Severity = "normal"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		s.dialect.Rebind("INSERT INTO activity_log (user_id, action, detail, severity, created_at) VALUES (?, ?, ?, ?, ?)"),
		userID, e.Action, e.Detail, e.Severity, e.CreatedAt,
	)
	return err
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// NormalizeSearch trims and NFC-normalizes a search term so composed and
// decomposed accents match the same rows.
func NormalizeSearch(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

// List returns one page of entries, newest first. Search matches action,
// detail or username, case-insensitively. Out of range pages are clamped.
func (s *ActivityStore) List(ctx context.Context, q ActivityQuery) (*ActivityPage, error) {
	search := NormalizeSearch(q.Search)

	where := ""
	var args []any
	if search != "" {
		where = ` WHERE LOWER(a.action) LIKE ? ESCAPE '\' OR LOWER(a.detail) LIKE ? ESCAPE '\' OR LOWER(COALESCE(u.username, '')) LIKE ? ESCAPE '\'`
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind("SELECT COUNT(*) FROM activity_log a LEFT JOIN users u ON u.id = a.user_id"+where),
		args...,
	).Scan(&total)
	if err != nil {
		return nil, err
	}

	page := &ActivityPage{
		Page:       max(q.Page, 1),
		TotalPages: (total + ActivityPageSize - 1) / ActivityPageSize,
		Total:      total,
		Search:     search,
		Entries:    []ActivityEntry{},
	}
	if page.TotalPages > 0 && page.Page > page.TotalPages {
		page.Page = page.TotalPages
	}
	if total == 0 {
		return page, nil
	}

	offset := (page.Page - 1) * ActivityPageSize
	rows, err := s.db.QueryContext(ctx,
		s.dialect.Rebind(`SELECT a.id, COALESCE(a.user_id, 0), COALESCE(u.username, ''), a.action, a.detail, a.severity, a.created_at
			FROM activity_log a LEFT JOIN users u ON u.id = a.user_id`+where+`
			ORDER BY a.created_at DESC, a.id DESC LIMIT ? OFFSET ?`),
		append(args, ActivityPageSize, offset)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Action, &e.Detail, &e.Severity, &e.CreatedAt); err != nil {
			return nil, err
		}
		page.Entries = append(page.Entries, e)
	}
	return page, rows.Err()
}
