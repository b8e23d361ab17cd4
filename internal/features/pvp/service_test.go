package pvp

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/config"
	"axlbot.ru/gamebot/internal/features/ledger"
	"axlbot.ru/gamebot/internal/store/memory"
)

const now = int64(1_700_000_000)

// newFixture собирает PVP-сервис поверх in-memory хранилища
// с детерминированным генератором случайности.
func newFixture(t *testing.T, mutate func(*config.Config)) (*Service, *ledger.Service) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	ledgerSvc := ledger.NewService(memory.New())
	return NewService(ledgerSvc, cfg, rand.NewSource(1)), ledgerSvc
}

func mustEnsure(t *testing.T, l *ledger.Service, id int64, balance int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, l.EnsureUser(ctx, id, ""))
	if balance > 0 {
		_, err := l.ChangeBalance(ctx, id, balance)
		require.NoError(t, err)
	}
}

func TestKill(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 0)

	res, err := svc.Kill(ctx, 1, 2, now)
	require.NoError(t, err)

	target, err := l.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.True(t, target.IsDead)

	// Награда минтится в диапазоне [min, max]
	assert.GreaterOrEqual(t, res.Reward, int64(90))
	assert.LessOrEqual(t, res.Reward, int64(150))
	bal, _ := l.GetBalance(ctx, 1)
	assert.Equal(t, res.Reward, bal)
}

func TestKillFixedReward(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, func(c *config.Config) {
		c.PVPKillRewardMin = 100
		c.PVPKillRewardMax = 100
	})
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 0)

	res, err := svc.Kill(ctx, 1, 2, now)
	require.NoError(t, err)
	assert.EqualValues(t, 100, res.Reward)
}

func TestKillBlockedForDeadActor(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 0)
	require.NoError(t, l.SetDead(ctx, 1, true))

	_, err := svc.Kill(ctx, 1, 2, now)
	assert.ErrorIs(t, err, common.ErrActorDead)

	target, _ := l.GetUser(ctx, 2)
	assert.False(t, target.IsDead)

	// Премиум действует и мёртвым
	require.NoError(t, l.SetPremium(ctx, 1, true))
	_, err = svc.Kill(ctx, 1, 2, now)
	require.NoError(t, err)
}

func TestKillSelfForbidden(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)

	_, err := svc.Kill(ctx, 1, 1, now)
	assert.ErrorIs(t, err, common.ErrSelfTarget)
}

func TestProtectionBlocksKillAndSteal(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, func(c *config.Config) {
		c.PVPStealChance = 1.0
	})
	mustEnsure(t, l, 1, 100)
	mustEnsure(t, l, 2, 100)
	require.NoError(t, l.SetProtect(ctx, 2, now+3600))

	_, err := svc.Kill(ctx, 1, 2, now)
	assert.ErrorIs(t, err, common.ErrTargetProtected)

	_, err = svc.Steal(ctx, 1, 2, now)
	assert.ErrorIs(t, err, common.ErrTargetProtected)

	// Состояние цели не изменилось
	target, _ := l.GetUser(ctx, 2)
	assert.False(t, target.IsDead)
	assert.EqualValues(t, 100, target.Balance)
	bal, _ := l.GetBalance(ctx, 1)
	assert.EqualValues(t, 100, bal)
}

func TestExpiredProtectionIsNoProtection(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 0)
	// Защита истекла в прошлом — не ошибка, просто не действует
	require.NoError(t, l.SetProtect(ctx, 2, now-1))

	_, err := svc.Kill(ctx, 1, 2, now)
	require.NoError(t, err)
}

func TestPremiumBypassesProtection(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 0)
	require.NoError(t, l.SetPremium(ctx, 1, true))
	require.NoError(t, l.SetProtect(ctx, 2, now+3600))

	_, err := svc.Kill(ctx, 1, 2, now)
	require.NoError(t, err)
}

// Премиум-цель иммунна к премиум-пробитию защиты.
func TestPremiumTargetImmuneToPremiumBypass(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 0)
	require.NoError(t, l.SetPremium(ctx, 1, true))
	require.NoError(t, l.SetPremium(ctx, 2, true))
	require.NoError(t, l.SetProtect(ctx, 2, now+3600))

	_, err := svc.Kill(ctx, 1, 2, now)
	assert.ErrorIs(t, err, common.ErrTargetProtected)
}

func TestStealSuccessMovesFunds(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, func(c *config.Config) {
		c.PVPStealChance = 1.0
	})
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 1000)

	res, err := svc.Steal(ctx, 1, 2, now)
	require.NoError(t, err)

	// Сумма в пределах [max(1, 5%), 30%] баланса цели
	assert.GreaterOrEqual(t, res.Amount, int64(1))
	assert.LessOrEqual(t, res.Amount, int64(300))

	// Честный перевод: эмиссия не изменилась
	thiefBal, _ := l.GetBalance(ctx, 1)
	targetBal, _ := l.GetBalance(ctx, 2)
	assert.Equal(t, res.Amount, thiefBal)
	assert.EqualValues(t, 1000, thiefBal+targetBal)
}

func TestStealFailedRollMovesNothing(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, func(c *config.Config) {
		c.PVPStealChance = 0.0
	})
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 1000)

	_, err := svc.Steal(ctx, 1, 2, now)
	assert.ErrorIs(t, err, common.ErrStealFailed)

	thiefBal, _ := l.GetBalance(ctx, 1)
	targetBal, _ := l.GetBalance(ctx, 2)
	assert.EqualValues(t, 0, thiefBal)
	assert.EqualValues(t, 1000, targetBal)
}

func TestStealNothingToSteal(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, func(c *config.Config) {
		c.PVPStealChance = 1.0
	})
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 0)

	_, err := svc.Steal(ctx, 1, 2, now)
	assert.ErrorIs(t, err, common.ErrNothingToSteal)
}

func TestStealBlockedForDeadThief(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, func(c *config.Config) {
		c.PVPStealChance = 1.0
	})
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 100)
	require.NoError(t, l.SetDead(ctx, 1, true))

	_, err := svc.Steal(ctx, 1, 2, now)
	assert.ErrorIs(t, err, common.ErrActorDead)
}

func TestProtect(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 500)

	res, err := svc.Protect(ctx, 1, now)
	require.NoError(t, err)
	assert.EqualValues(t, 200, res.Cost)
	assert.Equal(t, now+86400, res.Until)

	acc, _ := l.GetUser(ctx, 1)
	assert.EqualValues(t, 300, acc.Balance)
	assert.Equal(t, now+86400, acc.ProtectUntil)
}

// Провал списания стоимости отменяет активацию защиты.
func TestProtectCostFailureAbortsActivation(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 100) // меньше стоимости

	_, err := svc.Protect(ctx, 1, now)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	acc, _ := l.GetUser(ctx, 1)
	assert.EqualValues(t, 100, acc.Balance)
	assert.EqualValues(t, 0, acc.ProtectUntil)
}

func TestProtectFreeForPremium(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)
	require.NoError(t, l.SetPremium(ctx, 1, true))

	res, err := svc.Protect(ctx, 1, now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Cost)

	acc, _ := l.GetUser(ctx, 1)
	assert.Equal(t, now+86400, acc.ProtectUntil)
}

func TestRevive(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 500)
	mustEnsure(t, l, 2, 0)

	// Живую цель оживлять нельзя
	_, err := svc.Revive(ctx, 1, 2)
	assert.ErrorIs(t, err, common.ErrTargetNotDead)

	require.NoError(t, l.SetDead(ctx, 2, true))

	res, err := svc.Revive(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 200, res.Cost)

	target, _ := l.GetUser(ctx, 2)
	assert.False(t, target.IsDead)
	bal, _ := l.GetBalance(ctx, 1)
	assert.EqualValues(t, 300, bal)
}

func TestReviveCostFailureAborts(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 100)
	mustEnsure(t, l, 2, 0)
	require.NoError(t, l.SetDead(ctx, 2, true))

	_, err := svc.Revive(ctx, 1, 2)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	target, _ := l.GetUser(ctx, 2)
	assert.True(t, target.IsDead, "оживление не произошло")
	bal, _ := l.GetBalance(ctx, 1)
	assert.EqualValues(t, 100, bal)
}

func TestReviveFreeForPremium(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)
	mustEnsure(t, l, 2, 0)
	require.NoError(t, l.SetPremium(ctx, 1, true))
	require.NoError(t, l.SetDead(ctx, 2, true))

	res, err := svc.Revive(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Cost)
}

func TestDailyCooldown(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)

	res, err := svc.Daily(ctx, 1, now)
	require.NoError(t, err)
	assert.EqualValues(t, 500, res.Amount)
	assert.False(t, res.Premium)

	// Внутри окна — отказ без побочных эффектов
	_, err = svc.Daily(ctx, 1, now+1)
	assert.ErrorIs(t, err, common.ErrAlreadyClaimed)
	bal, _ := l.GetBalance(ctx, 1)
	assert.EqualValues(t, 500, bal)

	// После окна — снова можно
	_, err = svc.Daily(ctx, 1, now+86400)
	require.NoError(t, err)
}

// Премиум получает дейлик на каждый вызов, кулдаун не действует.
func TestDailyPremiumBypassesCooldown(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)
	require.NoError(t, l.SetPremium(ctx, 1, true))

	for i := 0; i < 3; i++ {
		res, err := svc.Daily(ctx, 1, now+int64(i))
		require.NoError(t, err)
		assert.True(t, res.Premium)
	}
	bal, _ := l.GetBalance(ctx, 1)
	assert.EqualValues(t, 1500, bal)
}

func TestActionsRequireKnownAccounts(t *testing.T) {
	ctx := context.Background()
	svc, l := newFixture(t, nil)
	mustEnsure(t, l, 1, 0)

	_, err := svc.Kill(ctx, 404, 1, now)
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = svc.Kill(ctx, 1, 404, now)
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = svc.Daily(ctx, 404, now)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}
