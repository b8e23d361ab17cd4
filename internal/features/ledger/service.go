// Package ledger — service.go содержит операции леджера: балансы,
// переводы, дейлик, топ и премиум-флаг.
//
// Сервис не держит никакого собственного состояния: все операции берут
// явные идентификаторы аккаунтов и уходят в хранилище, которое одно
// отвечает за атомарность. Бизнес-политики (смерть, защита, премиум)
// живут уровнем выше, в пакете pvp.
package ledger

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/store"
)

// Service управляет экономикой бота (рупии).
type Service struct {
	store store.Store
}

// NewService создаёт новый сервис леджера.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// EnsureUser лениво регистрирует аккаунт. Вызывается диспетчером команд
// на каждое входящее действие — операция идемпотентна.
func (s *Service) EnsureUser(ctx context.Context, userID int64, username string) error {
	return s.store.EnsureUser(ctx, userID, username)
}

// GetUser возвращает аккаунт или common.ErrUserNotFound.
func (s *Service) GetUser(ctx context.Context, userID int64) (*store.Account, error) {
	return s.store.GetUser(ctx, userID)
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	acc, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// ChangeBalance изменяет баланс на delta и возвращает новый баланс.
// Отрицательная дельта проходит только при достаточном балансе —
// проверку и запись хранилище делает одним шагом.
func (s *Service) ChangeBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	return s.store.ChangeBalance(ctx, userID, delta)
}

// Transfer переводит рупии от одного пользователя к другому.
// Сумма обязана быть положительной; недостаток средств или неизвестный
// отправитель отменяют операцию целиком, без частичного эффекта.
func (s *Service) Transfer(ctx context.Context, fromID, toID int64, amount int64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	if err := s.store.Transfer(ctx, fromID, toID, amount); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"from":   fromID,
		"to":     toID,
		"amount": amount,
	}).Info("Перевод выполнен")

	return nil
}

// ClaimDaily выдаёт дейлик, если кулдаун прошёл. Окно скользящее:
// привязано к прошлому успешному клейму, а не к календарным суткам.
// Возвращает новый баланс или common.ErrAlreadyClaimed.
func (s *Service) ClaimDaily(ctx context.Context, userID int64, amount, now, cooldown int64) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	return s.store.ClaimDaily(ctx, userID, amount, now, cooldown)
}

// TopUsers возвращает limit самых богатых аккаунтов по убыванию баланса.
func (s *Service) TopUsers(ctx context.Context, limit int) ([]*store.Account, error) {
	return s.store.TopUsers(ctx, limit)
}

// SetPremium включает/выключает премиум-флаг.
func (s *Service) SetPremium(ctx context.Context, userID int64, premium bool) error {
	return s.store.SetPremium(ctx, userID, premium)
}

// IsPremium сообщает, премиум ли пользователь. Неизвестный аккаунт —
// не премиум, это не ошибка.
func (s *Service) IsPremium(ctx context.Context, userID int64) (bool, error) {
	acc, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return acc.IsPremium, nil
}

// SetDead выставляет PVP-флаг смерти (для pvp-слоя).
func (s *Service) SetDead(ctx context.Context, userID int64, dead bool) error {
	return s.store.SetDead(ctx, userID, dead)
}

// SetProtect задаёт срок действия защиты (для pvp-слоя).
func (s *Service) SetProtect(ctx context.Context, userID int64, until int64) error {
	return s.store.SetProtect(ctx, userID, until)
}

// TotalSupply возвращает суммарную эмиссию леджера (для аудита).
func (s *Service) TotalSupply(ctx context.Context) (int64, error) {
	return s.store.TotalSupply(ctx)
}
