package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// PostgresStore maps each collection onto a table (id TEXT PRIMARY KEY,
// data JSONB). Tables and unique indexes come from the embedded migrations.
type PostgresStore struct {
	db  *sqlx.DB
	reg registry
}

func NewPostgresStore(db *sqlx.DB, schemas ...Schema) *PostgresStore {
	return &PostgresStore{db: db, reg: newRegistry(schemas)}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) table(coll string) (string, error) {
	if _, err := s.reg.lookup(coll); err != nil {
		return "", err
	}
	return pqIdent(coll), nil
}

func (s *PostgresStore) Insert(ctx context.Context, coll string, doc Document) (Document, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}
	out := stamp(doc)
	if err := validID(out.ID()); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO `+table+` (id, data) VALUES ($1, $2::jsonb)`, out.ID(), string(raw)); err != nil {
		return nil, pgError(err)
	}
	return normalizeDoc(out), nil
}

func (s *PostgresStore) Get(ctx context.Context, coll, id string) (Document, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	return scanDoc(s.db.QueryRowxContext(ctx, `SELECT data FROM `+table+` WHERE id = $1`, id))
}

func (s *PostgresStore) Find(ctx context.Context, coll string, q Query) ([]Document, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}
	query, args := buildSelect(table, q)
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()
	docs := []Document{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc := Document{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context, coll string, f Filter) (int64, error) {
	table, err := s.table(coll)
	if err != nil {
		return 0, err
	}
	b := &sqlBuilder{}
	where := b.where(f, Search{})
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table+where, b.args...); err != nil {
		return 0, pgError(err)
	}
	return n, nil
}

func (s *PostgresStore) Patch(ctx context.Context, coll, id string, set Document) (Document, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(cleanSet(set))
	if err != nil {
		return nil, err
	}
	return scanDoc(s.db.QueryRowxContext(ctx,
		`UPDATE `+table+` SET data = data || $1::jsonb WHERE id = $2 RETURNING data`, string(raw), id))
}

func (s *PostgresStore) PatchMany(ctx context.Context, coll string, f Filter, set Document) (int64, error) {
	table, err := s.table(coll)
	if err != nil {
		return 0, err
	}
	raw, err := json.Marshal(cleanSet(set))
	if err != nil {
		return 0, err
	}
	b := &sqlBuilder{}
	placeholder := b.arg(string(raw))
	where := b.where(f, Search{})
	res, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET data = data || `+placeholder+`::jsonb`+where, b.args...)
	if err != nil {
		return 0, pgError(err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) Delete(ctx context.Context, coll, id string) error {
	table, err := s.table(coll)
	if err != nil {
		return err
	}
	if err := validID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return pgError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteMany(ctx context.Context, coll string, f Filter) (int64, error) {
	table, err := s.table(coll)
	if err != nil {
		return 0, err
	}
	b := &sqlBuilder{}
	where := b.where(f, Search{})
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+where, b.args...)
	if err != nil {
		return 0, pgError(err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) EnsureOne(ctx context.Context, coll, key string, defaults Document) (Document, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(key); err != nil {
		return nil, err
	}
	seed := Document{}
	for k, v := range defaults {
		seed[k] = v
	}
	seed[FieldID] = key
	raw, err := json.Marshal(stamp(seed))
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, data) VALUES ($1, $2::jsonb) ON CONFLICT (id) DO NOTHING`, key, string(raw)); err != nil {
		return nil, pgError(err)
	}
	return s.Get(ctx, coll, key)
}

func (s *PostgresStore) InsertExclusive(ctx context.Context, coll, flag string, doc Document) (Document, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}
	out := stamp(doc)
	out[flag] = true
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := clearFlagTx(ctx, tx, table, flag); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (id, data) VALUES ($1, $2::jsonb)`, out.ID(), string(raw))
		return err
	})
	if err != nil {
		return nil, pgError(err)
	}
	return normalizeDoc(out), nil
}

func (s *PostgresStore) SetExclusive(ctx context.Context, coll, flag, id string) (Document, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(cleanSet(Document{flag: true}))
	if err != nil {
		return nil, err
	}
	var out Document
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if err := clearFlagTx(ctx, tx, table, flag); err != nil {
			return err
		}
		var err error
		out, err = scanDoc(tx.QueryRowxContext(ctx,
			`UPDATE `+table+` SET data = data || $1::jsonb WHERE id = $2 RETURNING data`, string(raw), id))
		return err
	})
	if err != nil {
		return nil, pgError(err)
	}
	return out, nil
}

func (s *PostgresStore) Increment(ctx context.Context, coll, id, field string, delta int64) (Document, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	return scanDoc(s.db.QueryRowxContext(ctx, `
UPDATE `+table+`
SET data = jsonb_set(data, ARRAY[$1::text], to_jsonb(COALESCE((data->>$1::text)::numeric, 0) + $2))
WHERE id = $3
RETURNING data`, field, delta, id))
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func clearFlagTx(ctx context.Context, tx *sqlx.Tx, table, flag string) error {
	raw, err := json.Marshal(cleanSet(Document{flag: false}))
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE `+table+` SET data = data || $1::jsonb WHERE data->$2::text = 'true'::jsonb`, string(raw), flag)
	return err
}

func scanDoc(row *sqlx.Row) (Document, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, pgError(err)
	}
	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func pgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func pqIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqlBuilder accumulates positional arguments. JSON field names are always
// bound as parameters, never spliced into the statement.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) where(f Filter, s Search) string {
	clauses := []string{}
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			clauses = append(clauses, "FALSE")
		} else {
			placeholders := make([]string, 0, len(f.IDs))
			for _, id := range f.IDs {
				placeholders = append(placeholders, b.arg(id))
			}
			clauses = append(clauses, "id IN ("+strings.Join(placeholders, ", ")+")")
		}
	}
	for _, field := range sortedKeys(f.Equals) {
		raw, err := json.Marshal(f.Equals[field])
		if err != nil {
			raw = []byte("null")
		}
		clauses = append(clauses, fmt.Sprintf("data->%s::text = %s::jsonb", b.arg(field), b.arg(string(raw))))
	}
	if s.Term != "" && len(s.Fields) > 0 {
		pattern := b.arg("%" + escapeLike(s.Term) + "%")
		ors := make([]string, 0, len(s.Fields))
		for _, field := range s.Fields {
			name := b.arg(field)
			ors = append(ors, fmt.Sprintf(
				`(CASE jsonb_typeof(data->%[1]s::text)
  WHEN 'string' THEN data->>%[1]s::text ILIKE %[2]s ESCAPE '\'
  WHEN 'array' THEN EXISTS (SELECT 1 FROM jsonb_array_elements_text(data->%[1]s::text) AS e(v) WHERE e.v ILIKE %[2]s ESCAPE '\')
  ELSE FALSE END)`, name, pattern))
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func buildSelect(table string, q Query) (string, []any) {
	b := &sqlBuilder{}
	var sb strings.Builder
	sb.WriteString("SELECT data FROM " + table)
	sb.WriteString(b.where(q.Filter, q.Search))
	if len(q.Sort) > 0 {
		parts := make([]string, 0, len(q.Sort))
		for _, key := range q.Sort {
			dir := "ASC NULLS FIRST"
			if key.Desc {
				dir = "DESC NULLS LAST"
			}
			parts = append(parts, "data->"+b.arg(key.Field)+"::text "+dir)
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + b.arg(q.Limit))
	}
	if q.Skip > 0 {
		sb.WriteString(" OFFSET " + b.arg(q.Skip))
	}
	return sb.String(), b.args
}

// escapeLike neutralises LIKE metacharacters so the term matches literally.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
