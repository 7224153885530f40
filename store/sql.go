package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stevemurr/simple-doc-store/pool"
)

// SQLStore keeps each collection in its own two-column table:
//
//	<collection>(id PRIMARY KEY, document TEXT NOT NULL)
//
// Every method runs a single statement through the pool.
type SQLStore struct {
	pool *pool.Pool
}

func NewSQLStore(p *pool.Pool) *SQLStore {
	return &SQLStore{pool: p}
}

// Pool returns the underlying connection pool.
func (s *SQLStore) Pool() *pool.Pool {
	return s.pool
}

func (s *SQLStore) Close() error {
	return s.pool.Close()
}

func (s *SQLStore) table(collection string) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}
	return s.pool.Dialect().Quote(collection), nil
}

func (s *SQLStore) Ensure(ctx context.Context, collection string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, s.pool.Dialect().CreateTable(collection))
	return err
}

func (s *SQLStore) Load(ctx context.Context, collection, id string) (string, bool, error) {
	t, err := s.table(collection)
	if err != nil {
		return "", false, err
	}
	var doc string
	err = s.pool.QueryRow(ctx, "SELECT document FROM "+t+" WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pool.Classify("load", err)
	}
	return doc, true, nil
}

func (s *SQLStore) Save(ctx context.Context, collection, id, doc string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, s.pool.Dialect().Upsert(collection), id, doc)
	return err
}

func (s *SQLStore) Update(ctx context.Context, collection, id, doc string) error {
	t, err := s.table(collection)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, "UPDATE "+t+" SET document = ? WHERE id = ?", doc, id)
	return err
}

func (s *SQLStore) Remove(ctx context.Context, collection, id string) error {
	t, err := s.table(collection)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, "DELETE FROM "+t+" WHERE id = ?", id)
	return err
}

func (s *SQLStore) Scan(ctx context.Context, collection string) ([]Row, error) {
	t, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, "SELECT id, document FROM "+t+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Document); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, pool.Classify("scan", rows.Err())
}
