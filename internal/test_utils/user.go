package test_utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// InsertUser stores a user row with a random uid and returns its id.
func InsertUser(t *testing.T, db *pgxpool.Pool) int {
	t.Helper()
	var id int
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (uid, email, display_name) VALUES ($1, $2, $3) RETURNING id`,
		uuid.NewString(), "test@financy.dev", "Test User",
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// CategoryIdByName returns the id of a seeded global category.
func CategoryIdByName(t *testing.T, db *pgxpool.Pool, name string) int {
	t.Helper()
	var id int
	err := db.QueryRow(context.Background(),
		`SELECT id FROM categories WHERE name = $1 AND user_id IS NULL`, name,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
