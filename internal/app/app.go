// Package app инициализирует все компоненты движка.
// app.go — точка сборки: выбирает бэкенд хранилища, гоняет миграции,
// создаёт сервисы и собирает всё в один объект App.
//
// Диспетчер команд (телеграм, CLI, что угодно) — внешний коллаборатор:
// он встраивает App и зовёт сервисы с уже разрешёнными числовыми id.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"axlbot.ru/gamebot/internal/config"
	"axlbot.ru/gamebot/internal/features/admin"
	"axlbot.ru/gamebot/internal/features/games"
	"axlbot.ru/gamebot/internal/features/ledger"
	"axlbot.ru/gamebot/internal/features/pvp"
	"axlbot.ru/gamebot/internal/jobs"
	"axlbot.ru/gamebot/internal/store"
	"axlbot.ru/gamebot/internal/store/memory"
	"axlbot.ru/gamebot/internal/store/postgres"
	storeredis "axlbot.ru/gamebot/internal/store/redis"
)

// App содержит все компоненты движка.
type App struct {
	Store     store.Store
	Ledger    *ledger.Service
	PVP       *pvp.Service
	Games     *games.Service
	Admin     *admin.Service
	Scheduler *jobs.Scheduler
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище ===
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// === 2. Сервисы ===
	ledgerService := ledger.NewService(st)
	pvpService := pvp.NewService(ledgerService, cfg,
		rand.NewSource(time.Now().UnixNano()))
	gamesService := games.NewService(ledgerService,
		rand.NewSource(time.Now().UnixNano()))
	adminService := admin.NewService(ledgerService, cfg)

	// === 3. Владелец ===
	// Аккаунт владельца создаётся заранее и получает премиум
	if cfg.OwnerID != 0 {
		if err := ledgerService.EnsureUser(ctx, cfg.OwnerID, ""); err != nil {
			return nil, fmt.Errorf("ошибка создания аккаунта владельца: %w", err)
		}
		if err := ledgerService.SetPremium(ctx, cfg.OwnerID, true); err != nil {
			return nil, fmt.Errorf("ошибка выдачи премиума владельцу: %w", err)
		}
		log.Infof("Владелец %d помечен премиумом", cfg.OwnerID)
	}

	// === 4. Планировщик задач ===
	scheduler := jobs.NewScheduler(ledgerService)

	return &App{
		Store:     st,
		Ledger:    ledgerService,
		PVP:       pvpService,
		Games:     gamesService,
		Admin:     adminService,
		Scheduler: scheduler,
	}, nil
}

// Close освобождает ресурсы приложения.
func (a *App) Close() error {
	return a.Store.Close()
}

// openStore выбирает и открывает бэкенд хранилища по конфигу.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return postgres.New(pool), nil

	case "redis":
		client, err := storeredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
		}
		return storeredis.New(client), nil

	case "memory":
		log.Warn("Хранилище в памяти: данные не переживут перезапуск")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("неизвестный бэкенд хранилища: %q", cfg.StoreBackend)
	}
}
