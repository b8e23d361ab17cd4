// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежечасный аудит эмиссии
// и ночной снимок топа.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"axlbot.ru/gamebot/internal/common"
	"axlbot.ru/gamebot/internal/features/ledger"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron   *cron.Cron
	ledger *ledger.Service
}

// NewScheduler создаёт планировщик задач.
func NewScheduler(ledgerService *ledger.Service) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		ledger: ledgerService,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Аудит каждый час: суммарная эмиссия меняется только минтом
	// (дейлик, награда за убийство, гранты), переводы и кражи её
	// не двигают — резкий скачок в логе означает баг.
	s.cron.AddFunc("0 * * * *", func() {
		total, err := s.ledger.TotalSupply(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка аудита эмиссии")
			return
		}
		log.Infof("[CRON] Эмиссия леджера: %s", common.FormatBalance(total))
	})

	// Ночной снимок топа в 00:00
	s.cron.AddFunc("0 0 * * *", func() {
		top, err := s.ledger.TopUsers(ctx, 10)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка снимка топа")
			return
		}
		for i, acc := range top {
			log.Infof("[CRON] Топ %d: user_id=%d (%s) — %s",
				i+1, acc.UserID, acc.Username, common.FormatBalance(acc.Balance))
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Stop останавливает планировщик и дожидается текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
