// Package games — мини-игры. Это клиенты леджера, а не его часть:
// каждый раунд безсостоятелен, вся работа с деньгами идёт через
// ChangeBalance, и инварианты баланса обеспечивает сам леджер.
package games

import (
	"context"
	"math/rand"
	"sync"

	log "github.com/sirupsen/logrus"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/features/ledger"
)

// Барабан слотов: пять символов, равновероятно.
var slotSymbols = []string{"🍒", "🍋", "🔔", "⭐", "7️⃣"}

// SlotResult — итог одного спина.
type SlotResult struct {
	Reels  [3]string
	Bet    int64
	Payout int64 // брутто-выплата; 0 при проигрыше
}

// Service крутит мини-игры поверх леджера.
type Service struct {
	ledger *ledger.Service

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewService создаёт сервис мини-игр с заданным источником случайности.
func NewService(ledgerService *ledger.Service, src rand.Source) *Service {
	return &Service{
		ledger: ledgerService,
		rnd:    rand.New(src),
	}
}

// PlaySlots выполняет полный цикл спина: списывает ставку, крутит три
// барабана и начисляет выигрыш.
//
// Выплаты: три одинаковых — x5, любая пара — x2, иначе ставка сгорает.
func (s *Service) PlaySlots(ctx context.Context, userID, bet int64) (*SlotResult, error) {
	if bet <= 0 {
		return nil, common.ErrInvalidAmount
	}

	// Списываем ставку: проверка достаточности — атомарная, внутри леджера
	if _, err := s.ledger.ChangeBalance(ctx, userID, -bet); err != nil {
		return nil, err
	}

	var reels [3]string
	s.rndMu.Lock()
	for i := range reels {
		reels[i] = slotSymbols[s.rnd.Intn(len(slotSymbols))]
	}
	s.rndMu.Unlock()

	var payout int64
	switch {
	case reels[0] == reels[1] && reels[1] == reels[2]:
		payout = bet * 5
	case reels[0] == reels[1] || reels[1] == reels[2] || reels[0] == reels[2]:
		payout = bet * 2
	}

	if payout > 0 {
		if _, err := s.ledger.ChangeBalance(ctx, userID, payout); err != nil {
			log.WithError(err).Error("Ошибка начисления выигрыша слотов")
			return nil, err
		}
	}

	return &SlotResult{Reels: reels, Bet: bet, Payout: payout}, nil
}
