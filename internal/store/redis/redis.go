// Package redis — бэкенд хранилища на Redis.
//
// Каждый аккаунт — хэш user:{id}; рядом поддерживается ZSET lb:balance
// (баланс как score) для выборки топа.
//
// Атомарность контракта достигается Lua-скриптами: Redis исполняет скрипт
// целиком, не чередуя его с другими командами, поэтому «проверить предикат
// и записать» — один неделимый шаг на стороне сервера. Тот же приём, что
// и при честном снятии распределённой блокировки.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/store"
)

const (
	// Ключ ZSET с балансами для топа
	leaderboardKey = "lb:balance"

	// Коды возврата Lua-скриптов. Балансы неотрицательны,
	// поэтому с результатом операции они не пересекаются.
	codeInsufficient   = -1
	codeNotFound       = -2
	codeAlreadyClaimed = -3
)

// Скрипты объявлены на уровне пакета: go-redis кэширует их по SHA
// и выполняет через EVALSHA.
var (
	scriptEnsure = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  redis.call("HSET", KEYS[1],
    "user_id", ARGV[1], "username", ARGV[2], "balance", 0,
    "is_dead", 0, "protect_until", 0, "last_daily", 0, "is_premium", 0)
  redis.call("ZADD", KEYS[2], 0, ARGV[1])
  return 1
end
if ARGV[2] ~= "" then
  redis.call("HSET", KEYS[1], "username", ARGV[2])
end
return 0
`)

	scriptChangeBalance = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then return -2 end
local bal = tonumber(redis.call("HGET", KEYS[1], "balance"))
local delta = tonumber(ARGV[1])
if delta < 0 and bal + delta < 0 then return -1 end
bal = bal + delta
redis.call("HSET", KEYS[1], "balance", bal)
redis.call("ZADD", KEYS[2], bal, ARGV[2])
return bal
`)

	scriptTransfer = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then return -2 end
local amount = tonumber(ARGV[1])
local sbal = tonumber(redis.call("HGET", KEYS[1], "balance"))
if sbal < amount then return -1 end
if redis.call("EXISTS", KEYS[2]) == 0 then
  redis.call("HSET", KEYS[2],
    "user_id", ARGV[3], "username", "", "balance", 0,
    "is_dead", 0, "protect_until", 0, "last_daily", 0, "is_premium", 0)
end
redis.call("HSET", KEYS[1], "balance", sbal - amount)
local rbal = tonumber(redis.call("HGET", KEYS[2], "balance")) + amount
redis.call("HSET", KEYS[2], "balance", rbal)
redis.call("ZADD", KEYS[3], sbal - amount, ARGV[2])
redis.call("ZADD", KEYS[3], rbal, ARGV[3])
return 0
`)

	scriptClaimDaily = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then return -2 end
local last = tonumber(redis.call("HGET", KEYS[1], "last_daily"))
if last ~= 0 and tonumber(ARGV[2]) - last < tonumber(ARGV[3]) then return -3 end
local bal = tonumber(redis.call("HGET", KEYS[1], "balance")) + tonumber(ARGV[1])
redis.call("HSET", KEYS[1], "last_daily", ARGV[2], "balance", bal)
redis.call("ZADD", KEYS[2], bal, ARGV[4])
return bal
`)

	scriptSetField = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then return -2 end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 0
`)
)

// Store реализует store.Store поверх клиента Redis.
type Store struct {
	client *redis.Client
}

// NewClient создаёт и проверяет клиента Redis по конфигу.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis недоступен: %w", err)
	}

	log.Info("Подключение к Redis установлено")
	return client, nil
}

// New создаёт Redis-бэкенд хранилища.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func userKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// EnsureUser лениво создаёт хэш аккаунта и запись в ZSET топа.
func (s *Store) EnsureUser(ctx context.Context, userID int64, username string) error {
	err := scriptEnsure.Run(ctx, s.client,
		[]string{userKey(userID), leaderboardKey}, userID, username).Err()
	if err != nil {
		return fmt.Errorf("ошибка создания аккаунта: %w", err)
	}
	return nil
}

// GetUser читает хэш целиком: HGETALL атомарен, рваного чтения
// одного аккаунта не бывает.
func (s *Store) GetUser(ctx context.Context, userID int64) (*store.Account, error) {
	fields, err := s.client.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аккаунта: %w", err)
	}
	if len(fields) == 0 {
		return nil, common.ErrUserNotFound
	}
	return accountFromHash(fields), nil
}

// ChangeBalance выполняет условное изменение баланса Lua-скриптом.
func (s *Store) ChangeBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	res, err := scriptChangeBalance.Run(ctx, s.client,
		[]string{userKey(userID), leaderboardKey}, delta, userID).Int64()
	if err != nil {
		return 0, fmt.Errorf("ошибка изменения баланса: %w", err)
	}
	switch res {
	case codeNotFound:
		return 0, common.ErrUserNotFound
	case codeInsufficient:
		return 0, common.ErrInsufficientFunds
	}
	return res, nil
}

// Transfer переводит amount одним скриптом: списание и зачисление
// неразделимы, частичный эффект невозможен.
func (s *Store) Transfer(ctx context.Context, fromID, toID int64, amount int64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	res, err := scriptTransfer.Run(ctx, s.client,
		[]string{userKey(fromID), userKey(toID), leaderboardKey},
		amount, fromID, toID).Int64()
	if err != nil {
		return fmt.Errorf("ошибка перевода: %w", err)
	}
	switch res {
	case codeNotFound:
		return common.ErrUserNotFound
	case codeInsufficient:
		return common.ErrInsufficientFunds
	}
	return nil
}

// ClaimDaily — CAS по last_daily внутри скрипта.
func (s *Store) ClaimDaily(ctx context.Context, userID int64, amount, now, cooldown int64) (int64, error) {
	res, err := scriptClaimDaily.Run(ctx, s.client,
		[]string{userKey(userID), leaderboardKey},
		amount, now, cooldown, userID).Int64()
	if err != nil {
		return 0, fmt.Errorf("ошибка получения дейлика: %w", err)
	}
	switch res {
	case codeNotFound:
		return 0, common.ErrUserNotFound
	case codeAlreadyClaimed:
		return 0, common.ErrAlreadyClaimed
	}
	return res, nil
}

// SetDead выставляет PVP-флаг смерти.
func (s *Store) SetDead(ctx context.Context, userID int64, dead bool) error {
	return s.setField(ctx, userID, "is_dead", boolToInt(dead))
}

// SetProtect задаёт срок действия защиты.
func (s *Store) SetProtect(ctx context.Context, userID int64, until int64) error {
	return s.setField(ctx, userID, "protect_until", until)
}

// SetLastDaily вручную сдвигает метку дейлика.
func (s *Store) SetLastDaily(ctx context.Context, userID int64, ts int64) error {
	return s.setField(ctx, userID, "last_daily", ts)
}

// SetPremium включает/выключает премиум-флаг.
func (s *Store) SetPremium(ctx context.Context, userID int64, premium bool) error {
	return s.setField(ctx, userID, "is_premium", boolToInt(premium))
}

func (s *Store) setField(ctx context.Context, userID int64, field string, value interface{}) error {
	res, err := scriptSetField.Run(ctx, s.client,
		[]string{userKey(userID)}, field, value).Int64()
	if err != nil {
		return fmt.Errorf("ошибка обновления аккаунта: %w", err)
	}
	if res == codeNotFound {
		return common.ErrUserNotFound
	}
	return nil
}

// TopUsers берёт топ из ZSET и дочитывает аккаунты. Ничьи ZSET разрешает
// лексикографически по члену — детерминированно для одинакового состояния.
func (s *Store) TopUsers(ctx context.Context, limit int) ([]*store.Account, error) {
	// ZREVRANGE со стопом -1 вернул бы весь ZSET, поэтому нулевой и
	// отрицательный limit отсекаются до запроса
	if limit <= 0 {
		return nil, nil
	}

	ids, err := s.client.ZRevRange(ctx, leaderboardKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса топа: %w", err)
	}

	out := make([]*store.Account, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		fields, err := s.client.HGetAll(ctx, userKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения аккаунта топа: %w", err)
		}
		if len(fields) == 0 {
			// Аккаунт успел исчезнуть между ZSET и хэшем — пропускаем строку
			continue
		}
		out = append(out, accountFromHash(fields))
	}
	return out, nil
}

// TotalSupply суммирует score всех членов ZSET.
func (s *Store) TotalSupply(ctx context.Context) (int64, error) {
	members, err := s.client.ZRangeWithScores(ctx, leaderboardKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта эмиссии: %w", err)
	}
	var total int64
	for _, m := range members {
		total += int64(m.Score)
	}
	return total, nil
}

// Close закрывает клиента Redis.
func (s *Store) Close() error {
	return s.client.Close()
}

func accountFromHash(fields map[string]string) *store.Account {
	return &store.Account{
		UserID:       parseInt(fields["user_id"]),
		Username:     fields["username"],
		Balance:      parseInt(fields["balance"]),
		IsDead:       fields["is_dead"] == "1",
		ProtectUntil: parseInt(fields["protect_until"]),
		LastDaily:    parseInt(fields["last_daily"]),
		IsPremium:    fields["is_premium"] == "1",
	}
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
