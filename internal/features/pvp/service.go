// Package pvp — service.go реализует политику PVP-действий: убийство,
// кражу, защиту и оживление поверх операций леджера.
//
// Слой не трогает атомарность: все проверки (мёртв/защищён/премиум)
// делаются по одному консистентному чтению актора и цели непосредственно
// перед мутирующим вызовом леджера, а сами мутации неделимы на стороне
// хранилища. Если между проверкой и мутацией кто-то успел изменить баланс,
// это поймает CAS-семантика самой операции (например, перевод кражи).
//
// Премиум меняет только проверки политики, никогда — атомарность:
//   - действует мёртвым;
//   - игнорирует чужую защиту (но не защиту другого премиума);
//   - не платит за защиту и оживление;
//   - получает дейлик без кулдауна.
package pvp

import (
	"context"
	"math/rand"
	"sync"

	log "github.com/sirupsen/logrus"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/config"
	"axlbot.ru/gamebot/internal/features/ledger"
	"axlbot.ru/gamebot/internal/store"
)

// Service управляет PVP-действиями.
type Service struct {
	ledger *ledger.Service
	cfg    *config.Config

	// rand.Rand не потокобезопасен, а действия приходят конкурентно
	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewService создаёт PVP-сервис с заданным источником случайности.
// Детерминированный source используется в тестах.
func NewService(ledgerService *ledger.Service, cfg *config.Config, src rand.Source) *Service {
	return &Service{
		ledger: ledgerService,
		cfg:    cfg,
		rnd:    rand.New(src),
	}
}

// Kill помечает цель мёртвой и минтит актору награду из [min, max].
//
// Блокировки:
//   - мёртвый актор без премиума — common.ErrActorDead;
//   - цель == актор — common.ErrSelfTarget;
//   - защищённая цель — common.ErrTargetProtected, если актор не премиум
//     либо цель сама премиум.
func (s *Service) Kill(ctx context.Context, actorID, targetID, now int64) (*KillResult, error) {
	actor, err := s.ledger.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.IsDead && !actor.IsPremium {
		return nil, common.ErrActorDead
	}
	if actorID == targetID {
		return nil, common.ErrSelfTarget
	}

	target, err := s.ledger.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if s.protectionHolds(actor, target, now) {
		return nil, common.ErrTargetProtected
	}

	if err := s.ledger.SetDead(ctx, targetID, true); err != nil {
		return nil, err
	}

	// Награда минтится: положительная дельта не проваливается
	reward := s.killReward()
	if _, err := s.ledger.ChangeBalance(ctx, actorID, reward); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"actor":  actorID,
		"target": targetID,
		"reward": reward,
	}).Info("Убийство")

	return &KillResult{TargetID: targetID, Reward: reward}, nil
}

// Steal пытается украсть у цели долю её баланса.
//
// Сумма = max(1, floor(balance * U(min%, max%))); бросок успеха — честная
// монета с вероятностью cfg.PVPStealChance, независимая от суммы.
// На успехе сумма переезжает честным переводом (валюта сохраняется);
// неудачный бросок или проигранный переводу конкурент — common.ErrStealFailed,
// средства не двигались.
func (s *Service) Steal(ctx context.Context, thiefID, targetID, now int64) (*StealResult, error) {
	thief, err := s.ledger.GetUser(ctx, thiefID)
	if err != nil {
		return nil, err
	}
	if thief.IsDead && !thief.IsPremium {
		return nil, common.ErrActorDead
	}

	target, err := s.ledger.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if s.protectionHolds(thief, target, now) {
		return nil, common.ErrTargetProtected
	}
	if target.Balance <= 0 {
		return nil, common.ErrNothingToSteal
	}

	amount := s.stealAmount(target.Balance)

	if !s.coin(s.cfg.PVPStealChance) {
		return nil, common.ErrStealFailed
	}
	if err := s.ledger.Transfer(ctx, targetID, thiefID, amount); err != nil {
		// Баланс цели успел уменьшиться — кража проваливается без эффекта
		log.WithFields(log.Fields{
			"thief":  thiefID,
			"target": targetID,
			"amount": amount,
		}).WithError(err).Debug("Кража проиграла конкурентному списанию")
		return nil, common.ErrStealFailed
	}

	log.WithFields(log.Fields{
		"thief":  thiefID,
		"target": targetID,
		"amount": amount,
	}).Info("Кража удалась")

	return &StealResult{TargetID: targetID, Amount: amount}, nil
}

// Protect покупает защиту на период cfg.PVPProtectDuration.
// Покупка и активация — два шага: если списание стоимости не прошло,
// активация не происходит. Премиум не платит.
func (s *Service) Protect(ctx context.Context, userID, now int64) (*ProtectResult, error) {
	acc, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var cost int64
	if !acc.IsPremium {
		cost = s.cfg.PVPProtectCost
		if _, err := s.ledger.ChangeBalance(ctx, userID, -cost); err != nil {
			return nil, err
		}
	}

	until := now + int64(s.cfg.PVPProtectDuration.Seconds())
	if err := s.ledger.SetProtect(ctx, userID, until); err != nil {
		return nil, err
	}

	return &ProtectResult{Until: until, Cost: cost}, nil
}

// Revive оживляет мёртвую цель. Стоимость списывается с оживляющего,
// если он не премиум; провал списания отменяет оживление.
func (s *Service) Revive(ctx context.Context, reviverID, targetID int64) (*ReviveResult, error) {
	target, err := s.ledger.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !target.IsDead {
		return nil, common.ErrTargetNotDead
	}

	reviver, err := s.ledger.GetUser(ctx, reviverID)
	if err != nil {
		return nil, err
	}

	var cost int64
	if !reviver.IsPremium {
		cost = s.cfg.PVPReviveCost
		if _, err := s.ledger.ChangeBalance(ctx, reviverID, -cost); err != nil {
			return nil, err
		}
	}

	if err := s.ledger.SetDead(ctx, targetID, false); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"reviver": reviverID,
		"target":  targetID,
	}).Info("Оживление")

	return &ReviveResult{TargetID: targetID, Cost: cost}, nil
}

// Daily выдаёт суточную награду. Премиум получает её безусловным минтом
// на каждый вызов; остальные идут через атомарный кулдаун леджера
// (common.ErrAlreadyClaimed внутри окна).
func (s *Service) Daily(ctx context.Context, userID, now int64) (*DailyResult, error) {
	acc, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	amount := s.cfg.EconomyDailyAmount
	if acc.IsPremium {
		if _, err := s.ledger.ChangeBalance(ctx, userID, amount); err != nil {
			return nil, err
		}
		return &DailyResult{Amount: amount, Premium: true}, nil
	}

	cooldown := int64(s.cfg.EconomyDailyCooldown.Seconds())
	if _, err := s.ledger.ClaimDaily(ctx, userID, amount, now, cooldown); err != nil {
		return nil, err
	}
	return &DailyResult{Amount: amount}, nil
}

// protectionHolds решает, держит ли защита цели против данного актора.
// Премиум-актор пробивает защиту, но премиум-цель иммунна к этому пробитию.
func (s *Service) protectionHolds(actor, target *store.Account, now int64) bool {
	if !target.ProtectedAt(now) {
		return false
	}
	if actor.IsPremium && !target.IsPremium {
		return false
	}
	return true
}

func (s *Service) killReward() int64 {
	min, max := s.cfg.PVPKillRewardMin, s.cfg.PVPKillRewardMax
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return min + s.rnd.Int63n(max-min+1)
}

func (s *Service) stealAmount(targetBalance int64) int64 {
	lo, hi := s.cfg.PVPStealMinPercent, s.cfg.PVPStealMaxPercent
	s.rndMu.Lock()
	frac := lo + s.rnd.Float64()*(hi-lo)
	s.rndMu.Unlock()

	amount := int64(float64(targetBalance) * frac)
	if amount < 1 {
		amount = 1
	}
	return amount
}

func (s *Service) coin(chance float64) bool {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.Float64() < chance
}
