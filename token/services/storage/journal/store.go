/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package journal

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/logging"
	_ "modernc.org/sqlite"
)

var logger = logging.MustGetLogger("storage", "journal")

const (
	SQLite   = "sqlite"
	Postgres = "postgres"

	tableName         = "invocations"
	defaultQueryLimit = 100
	columns           = "id, fcn, channel, chaincode, username, org, tx_id, outcome, error_kind, message, started_at, duration"
)

var (
	sqlDrivers = map[string]string{
		SQLite:   "sqlite",
		Postgres: "pgx",
	}
	validPrefix = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Store is the SQL backed invocation journal
type Store struct {
	db         *sql.DB
	table      string
	queryLimit int
}

// Open connects to the journal database and creates the schema if missing.
// driver is either sqlite or postgres.
func Open(driver, dataSource, tablePrefix string, queryLimit int) (*Store, error) {
	sqlDriver, ok := sqlDrivers[strings.ToLower(driver)]
	if !ok {
		return nil, errors.Errorf("unsupported journal driver [%s]", driver)
	}
	table, err := TableName(tablePrefix)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(sqlDriver, dataSource)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open journal database [%s]", driver)
	}
	if sqlDriver == sqlDrivers[SQLite] {
		db.SetMaxOpenConns(1)
	}
	s := NewStore(db, table, queryLimit)
	if err := s.CreateSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Infof("journal opened on [%s], table [%s]", driver, table)
	return s, nil
}

// NewStore returns a store over an open database
func NewStore(db *sql.DB, table string, queryLimit int) *Store {
	if queryLimit <= 0 {
		queryLimit = defaultQueryLimit
	}
	return &Store{db: db, table: table, queryLimit: queryLimit}
}

// TableName returns the journal table name for the passed prefix
func TableName(prefix string) (string, error) {
	if len(prefix) == 0 {
		return tableName, nil
	}
	if !validPrefix.MatchString(prefix) {
		return "", errors.Errorf("invalid table prefix [%s]", prefix)
	}
	return prefix + "_" + tableName, nil
}

func (s *Store) schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) NOT NULL PRIMARY KEY,
			fcn TEXT NOT NULL,
			channel TEXT NOT NULL,
			chaincode TEXT NOT NULL,
			username TEXT NOT NULL,
			org TEXT NOT NULL,
			tx_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error_kind TEXT NOT NULL,
			message TEXT NOT NULL,
			started_at BIGINT NOT NULL,
			duration BIGINT NOT NULL
		)`, s.table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_started_at_%s ON %s ( started_at )", s.table, s.table),
	}
}

func (s *Store) CreateSchema(ctx context.Context) error {
	for _, stmt := range s.schema() {
		logger.Debug(stmt)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to create journal schema [%s]", s.table)
		}
	}
	return nil
}

// Append stores e, assigning it an id when it has none
func (s *Store) Append(ctx context.Context, e *Entry) error {
	if len(e.ID) == 0 {
		id, err := uuid.GenerateUUID()
		if err != nil {
			return errors.Wrap(err, "error generating uuid")
		}
		e.ID = id
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)", s.table, columns)
	logger.Debug(query, e.ID, e.Function, e.Outcome)
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Function, e.Channel, e.Chaincode, e.Username, e.Org, e.TxID,
		string(e.Outcome), e.ErrorKind, e.Message, e.StartedAt.UnixNano(), int64(e.Duration))
	if err != nil {
		return errors.Wrapf(err, "failed to append invocation [%s]", e.ID)
	}
	return nil
}

// Get returns the entry with the passed id
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", columns, s.table)
	logger.Debug(query, id)
	e, err := scan(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithMessagef(ErrNotFound, "id [%s]", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get invocation [%s]", id)
	}
	return e, nil
}

// Query returns the entries matching f, most recent first
func (s *Store) Query(ctx context.Context, f Filter) ([]*Entry, error) {
	var conds []string
	var args []interface{}
	add := func(column, value string) {
		if len(value) == 0 {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("org", f.Org)
	add("fcn", f.Function)
	add("outcome", string(f.Outcome))
	add("username", f.Username)

	limit := f.Limit
	if limit <= 0 || limit > s.queryLimit {
		limit = s.queryLimit
	}
	args = append(args, limit)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", columns, s.table)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY started_at DESC LIMIT $%d", len(args))
	query := sb.String()
	logger.Debug(query, args)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query invocations")
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read invocation")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// HealthCheck pings the journal database
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "journal database unreachable")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(r scanner) (*Entry, error) {
	e := &Entry{}
	var outcome string
	var startedAt, duration int64
	if err := r.Scan(&e.ID, &e.Function, &e.Channel, &e.Chaincode, &e.Username, &e.Org, &e.TxID,
		&outcome, &e.ErrorKind, &e.Message, &startedAt, &duration); err != nil {
		return nil, err
	}
	e.Outcome = Outcome(outcome)
	e.StartedAt = time.Unix(0, startedAt).UTC()
	e.Duration = time.Duration(duration)
	return e, nil
}
