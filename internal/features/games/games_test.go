package games

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/features/ledger"
	"axlbot.ru/gamebot/internal/store/memory"
)

func newFixture(t *testing.T, seed int64) (*Service, *ledger.Service) {
	t.Helper()
	ledgerSvc := ledger.NewService(memory.New())
	return NewService(ledgerSvc, rand.NewSource(seed)), ledgerSvc
}

func TestPlaySlotsBalanceMath(t *testing.T) {
	ctx := context.Background()

	// Прогоняем много спинов с разными сидами: баланс всегда сходится
	// как старый - ставка + выплата, а выплата соответствует барабанам.
	for seed := int64(0); seed < 50; seed++ {
		svc, l := newFixture(t, seed)
		require.NoError(t, l.EnsureUser(ctx, 1, ""))
		_, err := l.ChangeBalance(ctx, 1, 1000)
		require.NoError(t, err)

		res, err := svc.PlaySlots(ctx, 1, 100)
		require.NoError(t, err)

		var want int64
		switch {
		case res.Reels[0] == res.Reels[1] && res.Reels[1] == res.Reels[2]:
			want = 500
		case res.Reels[0] == res.Reels[1] || res.Reels[1] == res.Reels[2] || res.Reels[0] == res.Reels[2]:
			want = 200
		}
		assert.Equal(t, want, res.Payout, "seed=%d reels=%v", seed, res.Reels)

		bal, err := l.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1000-100+res.Payout, bal, "seed=%d", seed)
	}
}

func TestPlaySlotsValidation(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, 1)
	require.NoError(t, l.EnsureUser(ctx, 1, ""))

	_, err := svc.PlaySlots(ctx, 1, 0)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = svc.PlaySlots(ctx, 1, -10)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	// Ставка сверх баланса отклоняется леджером, баланс не тронут
	_, err = svc.PlaySlots(ctx, 1, 50)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
	bal, _ := l.GetBalance(ctx, 1)
	assert.EqualValues(t, 0, bal)
}

func TestPlayDicePayoutRules(t *testing.T) {
	ctx := context.Background()

	for seed := int64(0); seed < 50; seed++ {
		svc, l := newFixture(t, seed)
		require.NoError(t, l.EnsureUser(ctx, 1, ""))
		_, err := l.ChangeBalance(ctx, 1, 1000)
		require.NoError(t, err)

		res, err := svc.PlayDice(ctx, 1, 100)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, res.Die1, 1)
		assert.LessOrEqual(t, res.Die1, 6)
		assert.GreaterOrEqual(t, res.Die2, 1)
		assert.LessOrEqual(t, res.Die2, 6)

		var want int64
		switch total := res.Die1 + res.Die2; {
		case total == 7 || total == 11:
			want = 300
		case total == 12:
			want = 0
		default:
			want = 150
		}
		assert.Equal(t, want, res.Payout, "seed=%d dice=%d+%d", seed, res.Die1, res.Die2)

		bal, err := l.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1000-100+res.Payout, bal)
	}
}

func TestPlayDiceInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, 1)
	require.NoError(t, l.EnsureUser(ctx, 1, ""))

	_, err := svc.PlayDice(ctx, 1, 100)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
}
