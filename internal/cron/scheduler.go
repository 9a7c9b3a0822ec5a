package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"windreseller/internal/config"
	"windreseller/internal/pkg/telegram"
	"windreseller/internal/pkg/utils"
	"windreseller/internal/repository"
	"windreseller/internal/service"
)

// Scheduler manages all cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	cfg     *config.Config
	repos   *CronRepos
	svc     *service.Service
	auditor *service.Auditor
	botAPI  *telegram.BotAPI
	logger  *zap.Logger
}

// CronRepos bundles repositories needed by cron jobs.
type CronRepos struct {
	User  *repository.UserRepository
	Order *repository.OrderRepository
	Seat  *repository.SeatRepository
	Utm   *repository.UtmRepository
}

// New creates a new cron scheduler.
func New(cfg *config.Config, repos *CronRepos, svc *service.Service, auditor *service.Auditor, botAPI *telegram.BotAPI, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		cfg:     cfg,
		repos:   repos,
		svc:     svc,
		auditor: auditor,
		botAPI:  botAPI,
		logger:  logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Expire stale pending orders - every 10 minutes
	s.cron.AddFunc("0 */10 * * * *", func() {
		s.logger.Debug("Running: expire stale orders")
		s.expireStaleOrders()
	})

	// Retry queued audit events - every minute
	s.cron.AddFunc("0 * * * * *", func() {
		s.flushAuditQueue()
	})

	// Daily sales report - at 23:45
	s.cron.AddFunc("0 45 23 * * *", func() {
		s.logger.Debug("Running: daily sales report")
		s.dailyReport()
	})

	s.cron.Start()
}

// Stop stops the scheduler and returns a context that is done once
// running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping cron scheduler...")
	return s.cron.Stop()
}

// expireStaleOrders rejects pending orders older than the configured
// TTL. Expired orders hold no seat, so this never touches inventory.
func (s *Scheduler) expireStaleOrders() {
	ctx := context.Background()
	cutoff := time.Now().Add(-s.cfg.Shop.OrderTTL)

	orders, err := s.repos.Order.FindStalePending(cutoff)
	if err != nil {
		s.logger.Error("Failed to find stale orders", zap.Error(err))
		return
	}

	expired := 0
	for _, o := range orders {
		if err := s.svc.Reject(ctx, o.ID, "expired"); err != nil {
			// a concurrent approval may have won; skip quietly
			if errors.Is(err, service.ErrInvalidTransition) {
				continue
			}
			s.logger.Error("Failed to expire order", zap.Uint("order_id", o.ID), zap.Error(err))
			continue
		}
		expired++
		if user, err := s.repos.User.FindByID(o.UserID); err == nil {
			_, _ = s.botAPI.SendMessage(user.TgID,
				fmt.Sprintf("⌛️ سفارش #%d به دلیل عدم پرداخت منقضی شد.", o.ID), nil)
		}
	}
	if expired > 0 {
		s.logger.Info("Expired stale orders", zap.Int("count", expired))
	}
}

// flushAuditQueue retries audit events that failed to persist.
func (s *Scheduler) flushAuditQueue() {
	if s.auditor.PendingCount() == 0 {
		return
	}
	s.auditor.Flush(context.Background())
}

// dailyReport posts the daily numbers to the report channel.
func (s *Scheduler) dailyReport() {
	if s.cfg.Bot.ReportChannel == 0 {
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	count, revenue, err := s.repos.Order.ApprovedSince(since)
	if err != nil {
		s.logger.Error("Failed to build daily report", zap.Error(err))
		return
	}
	users, _ := s.repos.User.Count()
	freeSlots, _ := s.repos.Seat.FreeSlotTotal()
	activeSeats, _ := s.repos.Seat.CountActive()

	report := fmt.Sprintf(
		"📊 گزارش روزانه %s\n\n🛒 فروش امروز: %d\n💰 درآمد امروز: %s\n👥 کل کاربران: %d\n💺 صندلی‌های فعال: %d\n🪑 ظرفیت خالی: %d",
		utils.DateYMD(time.Now()),
		count,
		utils.FormatAmount(revenue, s.cfg.Shop.Currency),
		users, activeSeats, freeSlots,
	)
	if _, err := s.botAPI.SendMessage(s.cfg.Bot.ReportChannel, report, nil); err != nil {
		s.logger.Error("Failed to send daily report", zap.Error(err))
	}

	if freeSlots == 0 {
		_, _ = s.botAPI.SendMessage(s.cfg.Bot.ReportChannel,
			"⚠️ هیچ ظرفیت خالی باقی نمانده است. صندلی جدید اضافه کنید.", nil)
	}
}
