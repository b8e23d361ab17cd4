package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/store/memory"
)

const day = 86400

// Сквозной сценарий: переводы, минт, дейлик.
func TestLedgerScenario(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())

	require.NoError(t, svc.EnsureUser(ctx, 1, "alice"))
	require.NoError(t, svc.EnsureUser(ctx, 2, "bob"))
	_, err := svc.ChangeBalance(ctx, 1, 100)
	require.NoError(t, err)

	// Перевод сверх баланса — отказ, балансы не тронуты
	err = svc.Transfer(ctx, 1, 2, 150)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
	balA, _ := svc.GetBalance(ctx, 1)
	balB, _ := svc.GetBalance(ctx, 2)
	assert.EqualValues(t, 100, balA)
	assert.EqualValues(t, 0, balB)

	// Перевод всего баланса
	require.NoError(t, svc.Transfer(ctx, 1, 2, 100))
	balA, _ = svc.GetBalance(ctx, 1)
	balB, _ = svc.GetBalance(ctx, 2)
	assert.EqualValues(t, 0, balA)
	assert.EqualValues(t, 100, balB)

	// Минт
	bal, err := svc.ChangeBalance(ctx, 1, 500)
	require.NoError(t, err)
	assert.EqualValues(t, 500, bal)

	// Дейлик: клейм, отказ внутри окна, клейм после окна
	bal, err = svc.ClaimDaily(ctx, 1, 500, 1000, day)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, bal)

	acc, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, acc.LastDaily)

	_, err = svc.ClaimDaily(ctx, 1, 500, 1500, day)
	assert.ErrorIs(t, err, common.ErrAlreadyClaimed)
	bal, _ = svc.GetBalance(ctx, 1)
	assert.EqualValues(t, 1000, bal)
}

func TestTransferValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())
	require.NoError(t, svc.EnsureUser(ctx, 1, ""))

	assert.ErrorIs(t, svc.Transfer(ctx, 1, 2, 0), common.ErrInvalidAmount)
	assert.ErrorIs(t, svc.Transfer(ctx, 1, 2, -10), common.ErrInvalidAmount)
}

func TestClaimDailyValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())
	require.NoError(t, svc.EnsureUser(ctx, 1, ""))

	_, err := svc.ClaimDaily(ctx, 1, 0, 1000, day)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestIsPremium(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())

	// Неизвестный аккаунт — не премиум и не ошибка
	premium, err := svc.IsPremium(ctx, 404)
	require.NoError(t, err)
	assert.False(t, premium)

	require.NoError(t, svc.EnsureUser(ctx, 1, ""))
	require.NoError(t, svc.SetPremium(ctx, 1, true))
	premium, err = svc.IsPremium(ctx, 1)
	require.NoError(t, err)
	assert.True(t, premium)
}
