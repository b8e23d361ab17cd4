// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях движка.
// Все ошибки — восстановимые значения: по ним обработчики различают
// исход операции, состояние леджера при них не меняется.
// Ошибки хранилища (I/O, сеть) — отдельная категория: они оборачиваются
// через %w и означают аварийное прерывание операции без частичной записи.
package common

import "errors"

// Ошибки леджера (балансы, переводы, дейлик)
var (
	// ErrInsufficientFunds — списание превышает баланс
	ErrInsufficientFunds = errors.New("недостаточно рупий на счёте")
	// ErrAlreadyClaimed — суточный кулдаун ещё не прошёл
	ErrAlreadyClaimed = errors.New("дейлик уже получен, возвращайся позже")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrUserNotFound — аккаунт ни разу не создавался (нужен EnsureUser)
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки PVP-действий
var (
	// ErrActorDead — мёртвый (и не премиум) не может действовать
	ErrActorDead = errors.New("мёртвые не действуют")
	// ErrSelfTarget — нельзя убить самого себя
	ErrSelfTarget = errors.New("нельзя нацелиться на самого себя")
	// ErrTargetProtected — цель под защитой, атака невозможна
	ErrTargetProtected = errors.New("цель под защитой")
	// ErrTargetNotDead — оживлять можно только мёртвых
	ErrTargetNotDead = errors.New("цель и так жива")
	// ErrNothingToSteal — у цели нулевой баланс, красть нечего
	ErrNothingToSteal = errors.New("у цели нечего красть")
	// ErrStealFailed — попытка кражи провалилась (неудачный бросок
	// или баланс цели успел измениться), средства не двигались
	ErrStealFailed = errors.New("кража провалилась")
)

// Ошибки админки
var (
	// ErrNotOwner — команда доступна только владельцу бота
	ErrNotOwner = errors.New("команда доступна только владельцу")
)
