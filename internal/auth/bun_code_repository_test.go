package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/cinevault/api/internal/database"
)

func setupCodeDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	_, err = db.NewCreateTable().
		Model((*database.EmailVerificationToken)(nil)).
		Exec(context.Background())
	require.NoError(t, err)

	return db
}

func TestBunCodeRepository_ReplaceAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewBunCodeRepository(setupCodeDB(t), time.Hour)
	userID := uuid.New()

	require.NoError(t, repo.Replace(ctx, userID, "hash-1"))

	hash, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", hash)
}

func TestBunCodeRepository_GetUnknownUser(t *testing.T) {
	repo := NewBunCodeRepository(setupCodeDB(t), time.Hour)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestBunCodeRepository_ReplaceKeepsSingleRow(t *testing.T) {
	ctx := context.Background()
	db := setupCodeDB(t)
	repo := NewBunCodeRepository(db, time.Hour)
	userID := uuid.New()

	require.NoError(t, repo.Replace(ctx, userID, "hash-1"))
	require.NoError(t, repo.Replace(ctx, userID, "hash-2"))

	hash, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", hash)

	count, err := db.NewSelect().
		Model((*database.EmailVerificationToken)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBunCodeRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewBunCodeRepository(setupCodeDB(t), time.Hour)
	userID := uuid.New()

	require.NoError(t, repo.Replace(ctx, userID, "hash"))
	require.NoError(t, repo.Delete(ctx, userID))

	_, err := repo.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestBunCodeRepository_ExpiredRowInvisible(t *testing.T) {
	// Expiry is a query-time cutoff: a row past the TTL is absent to Get even
	// though no sweep has removed it.
	ctx := context.Background()
	db := setupCodeDB(t)
	repo := NewBunCodeRepository(db, time.Hour)
	userID := uuid.New()

	stale := &database.EmailVerificationToken{
		UserID:    userID,
		TokenHash: "hash",
		CreatedAt: time.Now().Add(-(time.Hour + time.Second)),
	}
	_, err := db.NewInsert().Model(stale).Exec(ctx)
	require.NoError(t, err)

	_, err = repo.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	// The sweep actually removes it
	require.NoError(t, repo.DeleteExpired(ctx))

	count, err := db.NewSelect().
		Model((*database.EmailVerificationToken)(nil)).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBunCodeRepository_SweepSparesLiveRows(t *testing.T) {
	ctx := context.Background()
	db := setupCodeDB(t)
	repo := NewBunCodeRepository(db, time.Hour)
	userID := uuid.New()

	require.NoError(t, repo.Replace(ctx, userID, "hash"))
	require.NoError(t, repo.DeleteExpired(ctx))

	hash, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "hash", hash)
}
