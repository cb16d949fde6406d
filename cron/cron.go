package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/meinhoongagan/home-services/logger"
	"github.com/meinhoongagan/home-services/models"
	"github.com/meinhoongagan/home-services/store"
)

type reminderSender interface {
	BookingReminder(notice store.BookingNotice) error
}

// StartCronJobs schedules the daily reminder for confirmed bookings due the
// next day. The caller stops the returned scheduler on shutdown.
func StartCronJobs(st store.Store, sender reminderSender, schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		sendBookingReminders(ctx, st, sender, time.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("add reminder job %q: %w", schedule, err)
	}
	c.Start()
	logger.Log.Info("cron scheduler started for booking reminders", zap.String("schedule", schedule))
	return c, nil
}

// sendBookingReminders emails every taker whose confirmed booking falls on
// the day after now. It returns how many reminders went out.
func sendBookingReminders(ctx context.Context, st store.Store, sender reminderSender, now time.Time) int {
	tomorrow := now.AddDate(0, 0, 1)
	notices, err := st.NoticesDueOn(ctx, tomorrow, models.StatusConfirmed)
	if err != nil {
		logger.Log.Error("fetch bookings for reminders", zap.Error(err))
		return 0
	}
	logger.Log.Info("bookings due for reminders", zap.Int("count", len(notices)))

	sent := 0
	for _, notice := range notices {
		if err := sender.BookingReminder(notice); err != nil {
			logger.Log.Warn("send reminder",
				zap.Stringer("booking_id", notice.BookingID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}
