package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultStateRepo_EnsureInitialized(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultStateRepo(mock)

	mock.ExpectExec("INSERT INTO vault_state").
		WithArgs(int64(3600)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.EnsureInitialized(context.Background(), time.Hour)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaultStateRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultStateRepo(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM vault_state WHERE id = 1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"paused", "staleness_window_seconds", "deposit_count", "withdraw_count", "updated_at"}).
			AddRow(true, int64(1800), int64(42), int64(7), now))

	state, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, state.Paused)
	assert.Equal(t, 30*time.Minute, state.StalenessWindow)
	assert.Equal(t, int64(42), state.DepositCount)
	assert.Equal(t, int64(7), state.WithdrawCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaultStateRepo_SetPaused(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultStateRepo(mock)

	mock.ExpectExec("UPDATE vault_state SET paused").
		WithArgs(true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.SetPaused(context.Background(), true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaultStateRepo_SetStalenessWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultStateRepo(mock)

	mock.ExpectExec("UPDATE vault_state SET staleness_window_seconds").
		WithArgs(int64(600)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.SetStalenessWindow(context.Background(), 10*time.Minute)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaultStateRepo_Increments(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVaultStateRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE vault_state SET deposit_count").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE vault_state SET withdraw_count").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.IncrementDeposits(context.Background(), tx))
	assert.NoError(t, repo.IncrementWithdrawals(context.Background(), tx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
