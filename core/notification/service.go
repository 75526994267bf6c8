package notification

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// FilterNotifications applies AND operation on available QueryFilter fields.
		FilterNotifications(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Notification, error)
		CountNotifications(ctx context.Context, filter QueryFilter) (int, error)
		MarkNotificationRead(ctx context.Context, id, recipientID string) error
		DeleteNotification(ctx context.Context, id, recipientID string) error
	}

	// UserDirectory resolves recipients for the email copies of urgent notifications.
	UserDirectory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo   Repository
		users  UserDirectory
		mail   core.EmailService
		logger core.Logger
	}
)

func NewService(repo Repository, users UserDirectory, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		mail:   mailSvc,
		logger: logger,
	}
}

// Create validates and persists a single notification.
// error-kind notifications are additionally emailed to the recipient, best-effort.
func (svc *Service) Create(ctx context.Context, nn NewNotification) (Notification, error) {
	if err := nn.Validate(); err != nil {
		return Notification{}, err
	}

	n := Notification{
		RecipientID: nn.RecipientID,
		Kind:        nn.Kind,
		Title:       nn.Title,
		Message:     nn.Message,
		Link:        null.NewString(nn.Link, nn.Link != ""),
		CreatedAt:   time.Now().UTC(),
	}
	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}

	if n.Kind == KindError {
		svc.emailCopy(ctx, n)
	}
	return n, nil
}

// CreateBatch persists notifications one by one, best-effort: a failed item is
// logged and skipped, without rolling back its siblings.
func (svc *Service) CreateBatch(ctx context.Context, batch []NewNotification) {
	for _, nn := range batch {
		if _, err := svc.Create(ctx, nn); err != nil {
			svc.logger.Warn("skipping notification in batch", errors.Wrap(err, "creating notification"))
		}
	}
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Notification, error) {
	return svc.repo.FilterNotifications(ctx, filter, ordering...)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountNotifications(ctx, filter)
}

// CountUnread reports a user's unread notifications. Feeds the notifications badge.
func (svc *Service) CountUnread(ctx context.Context, recipientID string) (int, error) {
	read := false
	return svc.repo.CountNotifications(ctx, QueryFilter{RecipientID: recipientID, Read: &read})
}

func (svc *Service) MarkRead(ctx context.Context, id, recipientID string) error {
	return svc.repo.MarkNotificationRead(ctx, id, recipientID)
}

func (svc *Service) Delete(ctx context.Context, id, recipientID string) error {
	return svc.repo.DeleteNotification(ctx, id, recipientID)
}

func (svc *Service) emailCopy(ctx context.Context, n Notification) {
	if svc.mail == nil || svc.users == nil {
		return
	}
	usr, err := svc.users.GetByID(ctx, n.RecipientID)
	if err != nil || usr.Email == "" {
		return
	}
	svc.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: n.Title,
		BodyStr: n.Message,
	})
}
