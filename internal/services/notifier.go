package services

import (
	"context"
	"sync"
	"sync/atomic"

	"auction-stream/internal/domain"
	"auction-stream/pkg/logger"
)

// NotificationService emails every registered user when a stream
// starts. Deliveries run concurrently; a failure for one recipient
// never aborts the batch.
type NotificationService struct {
	users  domain.UserRepository
	mailer domain.Mailer
	log    logger.Logger
}

func NewNotificationService(users domain.UserRepository, mailer domain.Mailer,
	log logger.Logger) *NotificationService {
	return &NotificationService{
		users:  users,
		mailer: mailer,
		log:    log,
	}
}

// NotifyStreamStarted returns the number of successfully sent emails.
func (n *NotificationService) NotifyStreamStarted(ctx context.Context) int {
	users, err := n.users.List(ctx)
	if err != nil {
		n.log.Error("Failed to list users for notification", "error", err)
		return 0
	}

	var wg sync.WaitGroup
	var sent int64
	for _, user := range users {
		if user.Email == "" {
			continue
		}
		wg.Add(1)
		go func(u *domain.User) {
			defer wg.Done()
			if err := n.mailer.SendStreamStarted(u.Email, u.Name); err != nil {
				n.log.Error("Failed to send stream notification", "email", u.Email, "error", err)
				return
			}
			atomic.AddInt64(&sent, 1)
		}(user)
	}
	wg.Wait()

	n.log.Info("Stream notifications dispatched", "sent", sent, "recipients", len(users))
	return int(sent)
}
