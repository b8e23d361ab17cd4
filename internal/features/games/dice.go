// games — dice.go: бросок двух костей по правилам крэпса-лайт.
package games

import (
	"context"

	"axlbot.ru/gamebot/internal/common"
)

// DiceResult — итог одного броска.
type DiceResult struct {
	Die1, Die2 int
	Bet        int64
	Payout     int64 // брутто-выплата; 0 при проигрыше
	Reason     string
}

// PlayDice списывает ставку и бросает 2d6.
//
// Выплаты: сумма 7 или 11 — x3; сумма 12 — проигрыш; остальное — x1.5
// (округление вниз).
func (s *Service) PlayDice(ctx context.Context, userID, bet int64) (*DiceResult, error) {
	if bet <= 0 {
		return nil, common.ErrInvalidAmount
	}

	if _, err := s.ledger.ChangeBalance(ctx, userID, -bet); err != nil {
		return nil, err
	}

	s.rndMu.Lock()
	die1 := s.rnd.Intn(6) + 1
	die2 := s.rnd.Intn(6) + 1
	s.rndMu.Unlock()

	res := &DiceResult{Die1: die1, Die2: die2, Bet: bet}
	switch total := die1 + die2; {
	case total == 7 || total == 11:
		res.Payout = bet * 3
		res.Reason = "счастливые 7 или 11"
	case total == 12:
		res.Reason = "крэпс, 12 — проигрыш"
	default:
		res.Payout = bet * 3 / 2
		res.Reason = "обычный бросок"
	}

	if res.Payout > 0 {
		if _, err := s.ledger.ChangeBalance(ctx, userID, res.Payout); err != nil {
			return nil, err
		}
	}

	return res, nil
}
