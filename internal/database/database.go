package database

import (
	"context"
	"fmt"
	"strings"
)

const MemoryDSN = "memory"

// Open selects the backend from the DSN scheme.
func Open(ctx context.Context, dsn, mongoDatabase string) (InterviewRepository, error) {
	switch {
	case dsn == MemoryDSN:
		return NewMemInterviewRepository(), nil
	case IsPostgres(dsn):
		return NewPgInterviewRepository(ctx, dsn)
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return NewMongoInterviewRepository(ctx, dsn, mongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported database DSN %q", dsn)
	}
}

func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
