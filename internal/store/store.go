// Package store определяет контракт хранилища аккаунтов.
//
// Хранилище — единственный общий изменяемый ресурс движка. Контракт один
// для всех бэкендов (PostgreSQL, Redis, in-memory): каждая операция вида
// «проверить условие и записать» выполняется как один неделимый шаг.
// Читать баланс, сравнивать в коде приложения и писать отдельно — гонка:
// два одновременных списания пройдут проверку и уведут баланс в минус.
package store

import "context"

// Account — одна запись леджера на пользователя.
// user_id стабилен и назначается вызывающей стороной; username — только
// кэш для отображения, никогда не авторитетен.
type Account struct {
	UserID       int64
	Username     string
	Balance      int64
	IsDead       bool
	ProtectUntil int64 // unix-секунды; 0 = защиты нет
	LastDaily    int64 // unix-секунды последнего успешного дейлика
	IsPremium    bool
}

// ProtectedAt сообщает, действует ли защита аккаунта в момент now.
// Просроченное значение ProtectUntil эквивалентно отсутствию защиты
// и никогда не является ошибкой.
func (a *Account) ProtectedAt(now int64) bool {
	return a.ProtectUntil != 0 && now < a.ProtectUntil
}

// Store — контракт бэкенда хранилища.
//
// Гарантии, обязательные для каждой реализации:
//   - баланс никогда не уходит в минус: отрицательная дельта применяется
//     только условно («вычесть, если balance >= |delta|») одним шагом;
//   - Transfer либо выполняет списание и зачисление целиком, либо не
//     делает ничего (валюта леджера сохраняется);
//   - ClaimDaily — compare-and-swap по last_daily: зачисление и сдвиг
//     метки происходят в одном шаге;
//   - эффект N конкурентных операций над одним аккаунтом эквивалентен
//     некоторой их последовательной истории.
//
// Ошибки предметной области возвращаются значениями из пакета common
// (ErrUserNotFound, ErrInsufficientFunds, ErrAlreadyClaimed); ошибки
// самого хранилища — любые другие, обёрнутые через %w.
type Store interface {
	// EnsureUser лениво создаёт аккаунт (идемпотентный upsert).
	// Существующий username не затирается пустым значением.
	EnsureUser(ctx context.Context, userID int64, username string) error

	// GetUser возвращает аккаунт или common.ErrUserNotFound.
	GetUser(ctx context.Context, userID int64) (*Account, error)

	// ChangeBalance изменяет баланс на delta и возвращает новый баланс.
	// Положительная дельта — безусловный минт; отрицательная — атомарное
	// условное списание (common.ErrInsufficientFunds при нехватке).
	ChangeBalance(ctx context.Context, userID int64, delta int64) (int64, error)

	// Transfer переводит amount от fromID к toID. Получатель создаётся
	// при необходимости; провал списания отменяет всю операцию.
	Transfer(ctx context.Context, fromID, toID int64, amount int64) error

	// ClaimDaily зачисляет amount и ставит last_daily = now, только если
	// now - last_daily >= cooldown (скользящее окно). Возвращает новый
	// баланс или common.ErrAlreadyClaimed без побочных эффектов.
	ClaimDaily(ctx context.Context, userID int64, amount, now, cooldown int64) (int64, error)

	// SetDead выставляет PVP-флаг смерти.
	SetDead(ctx context.Context, userID int64, dead bool) error

	// SetProtect задаёт срок действия защиты (unix-секунды).
	SetProtect(ctx context.Context, userID int64, until int64) error

	// SetLastDaily вручную сдвигает метку дейлика (админка, тесты).
	SetLastDaily(ctx context.Context, userID int64, ts int64) error

	// SetPremium включает/выключает премиум-флаг.
	SetPremium(ctx context.Context, userID int64, premium bool) error

	// TopUsers возвращает limit аккаунтов с наибольшим балансом по
	// убыванию. Порядок при равных балансах детерминирован для
	// одинакового состояния хранилища.
	TopUsers(ctx context.Context, limit int) ([]*Account, error)

	// TotalSupply возвращает сумму всех балансов (аудит сохранения валюты).
	TotalSupply(ctx context.Context) (int64, error)

	// Close освобождает ресурсы бэкенда.
	Close() error
}
