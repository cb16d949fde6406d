package mailer

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meinhoongagan/home-services/logger"
	"github.com/meinhoongagan/home-services/models"
	"github.com/meinhoongagan/home-services/store"
)

// Sender delivers one HTML email.
type Sender interface {
	SendEmail(to, subject, body string) error
}

// Notifier emails takers and providers about their bookings. A Notifier
// without a sender does nothing.
type Notifier struct {
	sender Sender
	store  store.Store
	wg     sync.WaitGroup
}

func New(sender Sender, st store.Store) *Notifier {
	return &Notifier{sender: sender, store: st}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.sender != nil
}

// BookingCreated tells the provider about a new booking request.
func (n *Notifier) BookingCreated(bookingID uuid.UUID) {
	n.async(bookingID, func(notice *store.BookingNotice) error {
		subject := fmt.Sprintf("New booking request - %s", notice.ServiceName)
		body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have a new booking request.</p>
		<ul>
			<li><strong>Service:</strong> %s</li>
			<li><strong>Customer:</strong> %s</li>
			<li><strong>Address:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
		</ul>
		<p>Please confirm or decline it from your dashboard.</p>
	`, esc(notice.ProviderName), esc(notice.ServiceName), esc(notice.TakerName),
			esc(notice.TakerAddress), notice.RequestedDate.Format(models.DateLayout))
		return n.sender.SendEmail(notice.ProviderEmail, subject, body)
	})
}

// BookingStatusChanged tells the taker a provider moved their booking.
func (n *Notifier) BookingStatusChanged(bookingID uuid.UUID) {
	n.async(bookingID, func(notice *store.BookingNotice) error {
		subject := fmt.Sprintf("Your booking is %s - %s", notice.Status, notice.ServiceName)
		body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your booking for <strong>%s</strong> on %s with %s is now <strong>%s</strong>.</p>
		<p>Best regards,</p>
		<p>Home Services</p>
	`, esc(notice.TakerName), esc(notice.ServiceName), notice.RequestedDate.Format(models.DateLayout),
			esc(notice.ProviderName), notice.Status)
		return n.sender.SendEmail(notice.TakerEmail, subject, body)
	})
}

// BookingReminder sends the taker a reminder for a booking due soon.
func (n *Notifier) BookingReminder(notice store.BookingNotice) error {
	if !n.Enabled() {
		return nil
	}
	subject := fmt.Sprintf("Reminder: %s tomorrow", notice.ServiceName)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder for your upcoming booking.</p>
		<ul>
			<li><strong>Service:</strong> %s</li>
			<li><strong>Provider:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Status:</strong> %s</li>
		</ul>
		<p>If you need to cancel, contact your provider as soon as possible.</p>
		<p>Best regards,</p>
		<p>Home Services</p>
	`, esc(notice.TakerName), esc(notice.ServiceName), esc(notice.ProviderName),
		notice.RequestedDate.Format(models.DateLayout), notice.Status)
	return n.sender.SendEmail(notice.TakerEmail, subject, body)
}

// Wait blocks until in-flight notifications finish.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

func (n *Notifier) async(bookingID uuid.UUID, send func(*store.BookingNotice) error) {
	if !n.Enabled() {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notice, err := n.store.BookingNotice(ctx, bookingID)
		if err != nil {
			logger.Log.Warn("load booking for notification", zap.Stringer("booking_id", bookingID), zap.Error(err))
			return
		}
		if err := send(notice); err != nil {
			logger.Log.Warn("send booking notification", zap.Stringer("booking_id", bookingID), zap.Error(err))
		}
	}()
}

func esc(s string) string {
	return html.EscapeString(s)
}
