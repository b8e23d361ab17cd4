// Package memory — бэкенд хранилища в памяти процесса.
//
// Один глобальный мьютекс сериализует все мутации, поэтому каждая
// операция «проверить и записать» неделима по построению. Контракт
// хранилища допускает такую грубую гранулярность: линеаризуемость на
// аккаунт следует из полной сериализации.
//
// Используется в тестах и как режим без внешних зависимостей.
package memory

import (
	"context"
	"sort"
	"sync"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/store"
)

// Store — потокобезопасная карта аккаунтов.
type Store struct {
	mu       sync.Mutex
	accounts map[int64]*store.Account
	// Порядок создания аккаунтов — для детерминированного разрешения
	// ничьих в топе.
	order []int64
}

// New создаёт пустое in-memory хранилище.
func New() *Store {
	return &Store{accounts: make(map[int64]*store.Account)}
}

// EnsureUser лениво создаёт аккаунт. Непустой username обновляется,
// пустой никогда не затирает сохранённый.
func (s *Store) EnsureUser(_ context.Context, userID int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		s.accounts[userID] = &store.Account{UserID: userID, Username: username}
		s.order = append(s.order, userID)
		return nil
	}
	if username != "" && acc.Username != username {
		acc.Username = username
	}
	return nil
}

// GetUser возвращает копию аккаунта, чтобы вызывающий код не мог
// изменить состояние в обход мьютекса.
func (s *Store) GetUser(_ context.Context, userID int64) (*store.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	cp := *acc
	return &cp, nil
}

// ChangeBalance изменяет баланс. Проверка «хватает ли средств» и запись
// происходят под одним захватом мьютекса — это и есть атомарный шаг.
func (s *Store) ChangeBalance(_ context.Context, userID int64, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return 0, common.ErrUserNotFound
	}
	if delta < 0 && acc.Balance < -delta {
		return 0, common.ErrInsufficientFunds
	}
	acc.Balance += delta
	return acc.Balance, nil
}

// Transfer списывает у отправителя и зачисляет получателю под одним
// захватом мьютекса: частичный эффект невозможен, валюта сохраняется.
func (s *Store) Transfer(_ context.Context, fromID, toID int64, amount int64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.accounts[fromID]
	if !ok {
		return common.ErrUserNotFound
	}
	if sender.Balance < amount {
		return common.ErrInsufficientFunds
	}

	recipient, ok := s.accounts[toID]
	if !ok {
		// Получатель создаётся лениво, как при EnsureUser
		recipient = &store.Account{UserID: toID}
		s.accounts[toID] = recipient
		s.order = append(s.order, toID)
	}

	sender.Balance -= amount
	recipient.Balance += amount
	return nil
}

// ClaimDaily — CAS по last_daily: окно скользящее, привязано к прошлому
// успешному дейлику, а не к календарным суткам. Нулевая метка означает
// «ещё ни разу не получал» — первый дейлик доступен всегда.
func (s *Store) ClaimDaily(_ context.Context, userID int64, amount, now, cooldown int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return 0, common.ErrUserNotFound
	}
	if acc.LastDaily != 0 && now-acc.LastDaily < cooldown {
		return 0, common.ErrAlreadyClaimed
	}
	acc.LastDaily = now
	acc.Balance += amount
	return acc.Balance, nil
}

// SetDead выставляет флаг смерти.
func (s *Store) SetDead(_ context.Context, userID int64, dead bool) error {
	return s.update(userID, func(a *store.Account) { a.IsDead = dead })
}

// SetProtect задаёт срок защиты.
func (s *Store) SetProtect(_ context.Context, userID int64, until int64) error {
	return s.update(userID, func(a *store.Account) { a.ProtectUntil = until })
}

// SetLastDaily вручную сдвигает метку дейлика.
func (s *Store) SetLastDaily(_ context.Context, userID int64, ts int64) error {
	return s.update(userID, func(a *store.Account) { a.LastDaily = ts })
}

// SetPremium включает/выключает премиум.
func (s *Store) SetPremium(_ context.Context, userID int64, premium bool) error {
	return s.update(userID, func(a *store.Account) { a.IsPremium = premium })
}

func (s *Store) update(userID int64, fn func(*store.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return common.ErrUserNotFound
	}
	fn(acc)
	return nil
}

// TopUsers возвращает срез копий: по убыванию баланса, при равенстве —
// в порядке создания аккаунтов (стабильная сортировка поверх order).
func (s *Store) TopUsers(_ context.Context, limit int) ([]*store.Account, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*store.Account, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.accounts[id]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Balance > out[j].Balance
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TotalSupply суммирует балансы всех аккаунтов.
func (s *Store) TotalSupply(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, acc := range s.accounts {
		total += acc.Balance
	}
	return total, nil
}

// Close ничего не освобождает: бэкенд живёт в памяти процесса.
func (s *Store) Close() error { return nil }
