package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdwd40/coin-exchange-gateway/internal/models"
)

// Tests here run against a live Postgres with migrations/schema.sql applied.
// Set STORE_TEST_CONN to enable them, e.g.
// host=localhost port=5432 user=coinuser password=coinpass dbname=coin_exchange_test sslmode=disable

func setupTestStore(t *testing.T) (*Store, *sql.DB) {
	connStr := os.Getenv("STORE_TEST_CONN")
	if connStr == "" {
		t.Skip("STORE_TEST_CONN not set; skipping live store tests")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	db, err := Connect(connStr, logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Exec("DELETE FROM positions")
		db.Exec("DELETE FROM accounts")
		db.Close()
	})

	return New(db, logger), db
}

func createTestAccount(t *testing.T, s *Store, funds string) uuid.UUID {
	userID := uuid.New()
	err := s.CreateAccount(context.Background(), userID, decimal.RequireFromString(funds))
	require.NoError(t, err)
	return userID
}

func TestAccountRoundTrip(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	userID := createTestAccount(t, s, "1000.00")

	account, err := s.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.True(t, account.Funds.Equal(decimal.RequireFromString("1000.00")))

	require.NoError(t, s.UpdateBalance(ctx, userID, decimal.RequireFromString("250.50")))

	account, err = s.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.True(t, account.Funds.Equal(decimal.RequireFromString("250.50")))
}

func TestGetAccount_Missing(t *testing.T) {
	s, _ := setupTestStore(t)

	_, err := s.GetAccount(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateBalance_MissingAccount(t *testing.T) {
	s, _ := setupTestStore(t)

	err := s.UpdateBalance(context.Background(), uuid.New(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestPositionLifecycle(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	userID := createTestAccount(t, s, "1000.00")

	// Missing position reads back as nil, nil
	p, err := s.GetPosition(ctx, userID, 1)
	require.NoError(t, err)
	assert.Nil(t, p)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.InsertPosition(ctx, models.Position{
		UserID:       userID,
		CoinID:       1,
		CoinName:     "Bitcoin",
		AmountHeld:   decimal.RequireFromString("0.02"),
		PriceBought:  decimal.RequireFromString("50000"),
		CurrentPrice: decimal.RequireFromString("50000"),
		TotalValue:   decimal.RequireFromString("1000"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	p, err = s.GetPosition(ctx, userID, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Bitcoin", p.CoinName)
	assert.True(t, p.AmountHeld.Equal(decimal.RequireFromString("0.02")))

	require.NoError(t, s.UpdatePosition(ctx, userID, 1,
		decimal.RequireFromString("0.05"), decimal.RequireFromString("51000"),
		decimal.RequireFromString("2550"), time.Now()))

	p, err = s.GetPosition(ctx, userID, 1)
	require.NoError(t, err)
	assert.True(t, p.AmountHeld.Equal(decimal.RequireFromString("0.05")))
	assert.True(t, p.TotalValue.Equal(decimal.RequireFromString("2550")))

	positions, err := s.ListPositions(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, positions, 1)

	require.NoError(t, s.DeletePosition(ctx, userID, 1))

	p, err = s.GetPosition(ctx, userID, 1)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpdatePositionPrice(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	userID := createTestAccount(t, s, "0.00")
	now := time.Now()
	require.NoError(t, s.InsertPosition(ctx, models.Position{
		UserID:       userID,
		CoinID:       2,
		CoinName:     "Ethereum",
		AmountHeld:   decimal.RequireFromString("10"),
		PriceBought:  decimal.RequireFromString("3000"),
		CurrentPrice: decimal.RequireFromString("3000"),
		TotalValue:   decimal.RequireFromString("30000"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	require.NoError(t, s.UpdatePositionPrice(ctx, userID, 2,
		decimal.RequireFromString("3100"), decimal.RequireFromString("31000")))

	p, err := s.GetPosition(ctx, userID, 2)
	require.NoError(t, err)
	assert.True(t, p.CurrentPrice.Equal(decimal.RequireFromString("3100")))
	assert.True(t, p.TotalValue.Equal(decimal.RequireFromString("31000")))
	// Acquisition price never moves after insert
	assert.True(t, p.PriceBought.Equal(decimal.RequireFromString("3000")))
}

func TestInsertPosition_DuplicateRejected(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	userID := createTestAccount(t, s, "0.00")
	now := time.Now()
	position := models.Position{
		UserID:       userID,
		CoinID:       3,
		CoinName:     "Cardano",
		AmountHeld:   decimal.RequireFromString("100"),
		PriceBought:  decimal.RequireFromString("1.50"),
		CurrentPrice: decimal.RequireFromString("1.50"),
		TotalValue:   decimal.RequireFromString("150"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	require.NoError(t, s.InsertPosition(ctx, position))
	// The unique constraint backstops the flows' read-before-write check
	assert.Error(t, s.InsertPosition(ctx, position))
}
