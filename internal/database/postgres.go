package database

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

type PgInterviewRepository struct {
	conn *sql.DB
}

func NewPgInterviewRepository(ctx context.Context, dsn string) (*PgInterviewRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &PgInterviewRepository{conn: db}, nil
}

func (db *PgInterviewRepository) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *PgInterviewRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
