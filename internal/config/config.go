// Package config загружает конфигурацию движка из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
//
// Все экономические параметры (дейлик, стоимость защиты/оживления, награда
// за убийство, шансы кражи) инжектируются отсюда и нигде не захардкожены:
// их можно менять без переделки логики.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Общие ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// Владелец бота: при старте аккаунт создаётся и помечается премиумом.
	// 0 — владельца нет.
	OwnerID int64 `envconfig:"OWNER_ID" default:"0"`

	// --- Хранилище ---
	// postgres | redis | memory. Все бэкенды выполняют один и тот же
	// контракт атомарности, выбор — вопрос инфраструктуры.
	StoreBackend string `envconfig:"STORE_BACKEND" default:"postgres"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"gamebot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Redis ---
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// --- Экономика ---
	EconomyCurrencyName string `envconfig:"ECONOMY_CURRENCY_NAME" default:"рупии"`
	EconomyDailyAmount  int64  `envconfig:"ECONOMY_DAILY_AMOUNT" default:"500"`
	// Скользящее окно дейлика, отсчитывается от прошлого успешного клейма
	EconomyDailyCooldown time.Duration `envconfig:"ECONOMY_DAILY_COOLDOWN" default:"24h"`

	// --- PVP ---
	PVPProtectCost     int64         `envconfig:"PVP_PROTECT_COST" default:"200"`
	PVPProtectDuration time.Duration `envconfig:"PVP_PROTECT_DURATION" default:"24h"`
	PVPReviveCost      int64         `envconfig:"PVP_REVIVE_COST" default:"200"`
	PVPKillRewardMin   int64         `envconfig:"PVP_KILL_REWARD_MIN" default:"90"`
	PVPKillRewardMax   int64         `envconfig:"PVP_KILL_REWARD_MAX" default:"150"`
	// Вероятность успеха кражи (Бернулли, не зависит от суммы)
	PVPStealChance float64 `envconfig:"PVP_STEAL_CHANCE" default:"0.5"`
	// Доля баланса цели, разыгрываемая равномерно в [min, max]
	PVPStealMinPercent float64 `envconfig:"PVP_STEAL_MIN_PERCENT" default:"0.05"`
	PVPStealMaxPercent float64 `envconfig:"PVP_STEAL_MAX_PERCENT" default:"0.30"`

	// --- Фоновые задачи ---
	JobsEnabled bool `envconfig:"JOBS_ENABLED" default:"true"`

	// --- Feature Flags ---
	FeatureGamesEnabled bool `envconfig:"FEATURE_GAMES_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("неизвестный STORE_BACKEND %q (ожидается postgres|redis|memory)", c.StoreBackend)
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.EconomyDailyAmount <= 0 {
		return fmt.Errorf("ECONOMY_DAILY_AMOUNT должен быть > 0")
	}
	if c.EconomyDailyCooldown <= 0 || c.PVPProtectDuration <= 0 {
		return fmt.Errorf("кулдауны должны быть > 0")
	}
	if c.PVPKillRewardMin <= 0 || c.PVPKillRewardMax < c.PVPKillRewardMin {
		return fmt.Errorf("некорректный диапазон PVP_KILL_REWARD_MIN/MAX")
	}
	if c.PVPStealChance < 0 || c.PVPStealChance > 1 {
		return fmt.Errorf("PVP_STEAL_CHANCE должен быть в [0, 1]")
	}
	if c.PVPStealMinPercent < 0 || c.PVPStealMaxPercent < c.PVPStealMinPercent || c.PVPStealMaxPercent >= 1 {
		return fmt.Errorf("некорректный диапазон PVP_STEAL_MIN/MAX_PERCENT")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default возвращает конфигурацию с дефолтами без чтения окружения.
// Используется в тестах, бэкенд хранилища — memory.
func Default() *Config {
	return &Config{
		StoreBackend:         "memory",
		EconomyCurrencyName:  "рупии",
		EconomyDailyAmount:   500,
		EconomyDailyCooldown: 24 * time.Hour,
		PVPProtectCost:       200,
		PVPProtectDuration:   24 * time.Hour,
		PVPReviveCost:        200,
		PVPKillRewardMin:     90,
		PVPKillRewardMax:     150,
		PVPStealChance:       0.5,
		PVPStealMinPercent:   0.05,
		PVPStealMaxPercent:   0.30,
		DBMaxConns:           25,
		DBMinConns:           5,
	}
}
