package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists audit events in PostgreSQL. The pool is owned by
// the app; Close here is a no-op.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewPostgresStore constructs a store using schema "vigil" by default.
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "vigil"
	}
	if !pgIdentRe.MatchString(schema) {
		return nil, fmt.Errorf("audit: invalid schema identifier %q", schema)
	}
	if pool == nil {
		return nil, errors.New("audit: nil pool")
	}
	return &PostgresStore{pool: pool, schema: schema}, nil
}

// Insert writes one audit row.
func (s *PostgresStore) Insert(ctx context.Context, ev Event) error {
	var ipVal any
	if ev.IP != nil {
		ipVal = ev.IP.String()
	}

	var metaVal *string
	if len(ev.Meta) > 0 {
		if b, err := json.Marshal(ev.Meta); err == nil {
			m := string(b)
			metaVal = &m
		}
	}

	q := fmt.Sprintf(`
		INSERT INTO %s.audit_log (
			at, action, user_id, username, session_id, ip, user_agent, meta
		) VALUES ($1, $2, $3, $4, $5, $6::inet, $7, $8::jsonb)
	`, s.schema)

	_, err := s.pool.Exec(ctx, q,
		ev.At, ev.Action,
		nilIfEmpty(ev.UserID), nilIfEmpty(ev.Username), nilIfEmpty(ev.SessionID),
		ipVal, nilIfEmpty(ev.UserAgent), metaVal,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := fmt.Sprintf(`
		SELECT at, action,
		       coalesce(user_id, ''), coalesce(username, ''), coalesce(session_id, ''),
		       coalesce(ip::text, ''), coalesce(user_agent, ''), coalesce(meta::text, '')
		FROM %s.audit_log
		ORDER BY at DESC
		LIMIT $1
	`, s.schema)

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var ip, meta string
		if err := rows.Scan(&ev.At, &ev.Action, &ev.UserID, &ev.Username, &ev.SessionID, &ip, &ev.UserAgent, &meta); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		if ip != "" {
			ev.IP = parseIP(ip)
		}
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &ev.Meta)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close is a no-op: the pool belongs to the app.
func (s *PostgresStore) Close() error { return nil }

func parseIP(s string) net.IP {
	// inet columns may carry a /32 or /128 suffix.
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return net.ParseIP(s)
}

func nilIfEmpty(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
