// Package admin — владельческие команды экономики.
//
// Аутентификацию движок не делает: вызывающая сторона уже преобразовала
// отправителя в стабильный числовой id, здесь он только сравнивается
// с OWNER_ID из конфигурации.
package admin

import (
	"context"

	log "github.com/sirupsen/logrus"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/config"
	"axlbot.ru/gamebot/internal/features/ledger"
)

// Service выполняет владельческие операции.
type Service struct {
	ledger *ledger.Service
	cfg    *config.Config
}

// NewService создаёт админ-сервис.
func NewService(ledgerService *ledger.Service, cfg *config.Config) *Service {
	return &Service{ledger: ledgerService, cfg: cfg}
}

// IsOwner сообщает, является ли пользователь владельцем бота.
func (s *Service) IsOwner(userID int64) bool {
	return s.cfg.OwnerID != 0 && userID == s.cfg.OwnerID
}

// Grant минтит цели amount рупий. Только владелец.
func (s *Service) Grant(ctx context.Context, callerID, targetID, amount int64) (int64, error) {
	if !s.IsOwner(callerID) {
		return 0, common.ErrNotOwner
	}
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	if err := s.ledger.EnsureUser(ctx, targetID, ""); err != nil {
		return 0, err
	}
	balance, err := s.ledger.ChangeBalance(ctx, targetID, amount)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"target": targetID,
		"amount": amount,
	}).Info("Владелец выдал рупии")

	return balance, nil
}

// SetPremium включает/выключает премиум цели. Только владелец.
func (s *Service) SetPremium(ctx context.Context, callerID, targetID int64, premium bool) error {
	if !s.IsOwner(callerID) {
		return common.ErrNotOwner
	}

	if err := s.ledger.EnsureUser(ctx, targetID, ""); err != nil {
		return err
	}
	if err := s.ledger.SetPremium(ctx, targetID, premium); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"target":  targetID,
		"premium": premium,
	}).Info("Владелец изменил премиум")

	return nil
}
