// Package postgres — queries.go реализует контракт store.Store поверх
// таблицы users. Все денежные операции выполняются либо одним условным
// UPDATE, либо в транзакции БД для целостности данных.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/store"
)

// Store реализует store.Store поверх пула PostgreSQL.
type Store struct {
	db *pgxpool.Pool
}

// New создаёт PostgreSQL-бэкенд хранилища.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureUser лениво создаёт аккаунт (идемпотентный upsert).
// На конфликте по user_id обновляется только username, и только если
// пришёл непустой — существующее имя пустым не затирается.
func (s *Store) EnsureUser(ctx context.Context, userID int64, username string) error {
	if username == "" {
		query := `
			INSERT INTO users (user_id, username)
			VALUES ($1, '')
			ON CONFLICT (user_id) DO NOTHING
		`
		if _, err := s.db.Exec(ctx, query, userID); err != nil {
			return fmt.Errorf("ошибка создания аккаунта: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO users (user_id, username)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username, updated_at = NOW()
		WHERE users.username IS DISTINCT FROM EXCLUDED.username
	`
	if _, err := s.db.Exec(ctx, query, userID, username); err != nil {
		return fmt.Errorf("ошибка создания/обновления аккаунта: %w", err)
	}
	return nil
}

// GetUser читает аккаунт одной строкой: одна строка — один консистентный
// снимок, рваных чтений отдельного аккаунта не бывает.
func (s *Store) GetUser(ctx context.Context, userID int64) (*store.Account, error) {
	query := `
		SELECT user_id, username, balance, is_dead, protect_until, last_daily, is_premium
		FROM users
		WHERE user_id = $1
	`
	var a store.Account
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&a.UserID, &a.Username, &a.Balance,
		&a.IsDead, &a.ProtectUntil, &a.LastDaily, &a.IsPremium,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения аккаунта (user_id=%d): %w", userID, err)
	}
	return &a, nil
}

// ChangeBalance изменяет баланс на delta и возвращает новый баланс.
//
// Отрицательная дельта — одно условное списание: предикат balance >= |delta|
// и запись выполняются одним UPDATE, поэтому два конкурентных списания
// не могут оба пройти проверку.
func (s *Store) ChangeBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	var (
		newBalance int64
		err        error
	)
	if delta >= 0 {
		err = s.db.QueryRow(ctx, `
			UPDATE users
			SET balance = balance + $2, updated_at = NOW()
			WHERE user_id = $1
			RETURNING balance
		`, userID, delta).Scan(&newBalance)
	} else {
		err = s.db.QueryRow(ctx, `
			UPDATE users
			SET balance = balance - $2, updated_at = NOW()
			WHERE user_id = $1 AND balance >= $2
			RETURNING balance
		`, userID, -delta).Scan(&newBalance)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Либо аккаунта нет, либо не хватило средств — различаем
			if delta < 0 {
				exists, exErr := s.exists(ctx, userID)
				if exErr != nil {
					return 0, exErr
				}
				if exists {
					return 0, common.ErrInsufficientFunds
				}
			}
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка изменения баланса: %w", err)
	}
	return newBalance, nil
}

// Transfer переводит amount от fromID к toID.
// Атомарная операция: либо оба баланса обновятся, либо ни одного.
//
// Строки блокируются по возрастанию user_id — при встречных переводах
// обе транзакции берут блокировки в одном порядке и дедлок невозможен.
func (s *Store) Transfer(ctx context.Context, fromID, toID int64, amount int64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Получатель создаётся лениво до взятия блокировок
	if _, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, username) VALUES ($1, '')
		ON CONFLICT (user_id) DO NOTHING
	`, toID); err != nil {
		return fmt.Errorf("ошибка создания получателя: %w", err)
	}

	// Блокируем обе строки в порядке возрастания id
	rows, err := tx.Query(ctx, `
		SELECT user_id, balance FROM users
		WHERE user_id = $1 OR user_id = $2
		ORDER BY user_id
		FOR UPDATE
	`, fromID, toID)
	if err != nil {
		return fmt.Errorf("ошибка блокировки счетов: %w", err)
	}

	var senderBalance int64
	senderFound := false
	for rows.Next() {
		var id, bal int64
		if err := rows.Scan(&id, &bal); err != nil {
			rows.Close()
			return fmt.Errorf("ошибка сканирования счёта: %w", err)
		}
		if id == fromID {
			senderBalance = bal
			senderFound = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ошибка чтения счетов: %w", err)
	}

	if !senderFound {
		return common.ErrUserNotFound
	}
	if senderBalance < amount {
		return common.ErrInsufficientFunds
	}

	// Списываем у отправителя (строка уже под блокировкой)
	if _, err := tx.Exec(ctx, `
		UPDATE users SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1
	`, fromID, amount); err != nil {
		return fmt.Errorf("ошибка списания у отправителя: %w", err)
	}

	// Начисляем получателю
	if _, err := tx.Exec(ctx, `
		UPDATE users SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
	`, toID, amount); err != nil {
		return fmt.Errorf("ошибка начисления получателю: %w", err)
	}

	return tx.Commit(ctx)
}

// ClaimDaily — CAS по last_daily: сдвиг метки и зачисление выполняются
// одним условным UPDATE, повторный вызов внутри окна не проходит предикат.
// last_daily = 0 означает «ещё ни разу» — первый дейлик доступен всегда.
func (s *Store) ClaimDaily(ctx context.Context, userID int64, amount, now, cooldown int64) (int64, error) {
	var newBalance int64
	err := s.db.QueryRow(ctx, `
		UPDATE users
		SET last_daily = $2, balance = balance + $3, updated_at = NOW()
		WHERE user_id = $1 AND (last_daily = 0 OR $2 - last_daily >= $4)
		RETURNING balance
	`, userID, now, amount, cooldown).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			exists, exErr := s.exists(ctx, userID)
			if exErr != nil {
				return 0, exErr
			}
			if exists {
				return 0, common.ErrAlreadyClaimed
			}
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка получения дейлика: %w", err)
	}
	return newBalance, nil
}

// SetDead выставляет PVP-флаг смерти.
func (s *Store) SetDead(ctx context.Context, userID int64, dead bool) error {
	return s.setField(ctx, userID,
		`UPDATE users SET is_dead = $2, updated_at = NOW() WHERE user_id = $1`, dead)
}

// SetProtect задаёт срок действия защиты.
func (s *Store) SetProtect(ctx context.Context, userID int64, until int64) error {
	return s.setField(ctx, userID,
		`UPDATE users SET protect_until = $2, updated_at = NOW() WHERE user_id = $1`, until)
}

// SetLastDaily вручную сдвигает метку дейлика.
func (s *Store) SetLastDaily(ctx context.Context, userID int64, ts int64) error {
	return s.setField(ctx, userID,
		`UPDATE users SET last_daily = $2, updated_at = NOW() WHERE user_id = $1`, ts)
}

// SetPremium включает/выключает премиум-флаг.
func (s *Store) SetPremium(ctx context.Context, userID int64, premium bool) error {
	return s.setField(ctx, userID,
		`UPDATE users SET is_premium = $2, updated_at = NOW() WHERE user_id = $1`, premium)
}

func (s *Store) setField(ctx context.Context, userID int64, query string, value any) error {
	tag, err := s.db.Exec(ctx, query, userID, value)
	if err != nil {
		return fmt.Errorf("ошибка обновления аккаунта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// TopUsers возвращает топ по балансу. Ничьи разрешаются по id — то есть
// по порядку создания аккаунтов, детерминированно.
func (s *Store) TopUsers(ctx context.Context, limit int) ([]*store.Account, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT user_id, username, balance, is_dead, protect_until, last_daily, is_premium
		FROM users
		ORDER BY balance DESC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса топа: %w", err)
	}
	defer rows.Close()

	var out []*store.Account
	for rows.Next() {
		var a store.Account
		if err := rows.Scan(
			&a.UserID, &a.Username, &a.Balance,
			&a.IsDead, &a.ProtectUntil, &a.LastDaily, &a.IsPremium,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// TotalSupply возвращает сумму всех балансов леджера.
func (s *Store) TotalSupply(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(balance), 0) FROM users`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта эмиссии: %w", err)
	}
	return total, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}
