package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/types"
)

const (
	RealtimeNewNotification   = "new_notification"
	defaultNotificationsLimit = 50
)

type NotificationWriter interface {
	CreateNotification(
		context.Context,
		int64,
		types.NotificationCategory,
		string, string, string,
	) (*store.Notification, error)
	MarkNotificationRead(context.Context, int64) error
	GetOrCreateNotificationPreference(context.Context, int64) (*store.NotificationPreference, error)
	UpdateNotificationPreference(context.Context, *store.NotificationPreference) error
}

type NotificationReader interface {
	ReadNotificationByID(context.Context, int64) (*store.Notification, error)
	ListUserNotifications(context.Context, int64, int64) ([]store.Notification, error)
	CountUnreadNotifications(context.Context, int64) (int64, error)
}

type NotificationStore interface {
	NotificationWriter
	NotificationReader
}

type UserReader interface {
	ReadUserByID(context.Context, int64) (*store.User, error)
	ListActiveUsers(context.Context) ([]*store.User, error)
}

type Publisher interface {
	PublishToUser(userID int64, payload any) error
}

// RealtimeMessage is pushed to a user's channel for every new in-app
// notification.
type RealtimeMessage struct {
	Type         string              `json:"type"`
	Notification *store.Notification `json:"notification"`
	Count        int64               `json:"count"`
}

type TicketRef struct {
	TicketID int64
	Title    string
}

type CommentRef struct {
	CommentID int64
	TicketID  int64
	Body      string
}

type NotificationService struct {
	notificationStore NotificationStore
	userStore         UserReader
	publisher         Publisher
	mailer            Mailer
}

type NotificationServicer interface {
	ListNotifications(ctx context.Context, userID, limit int64) ([]store.Notification, error)
	UnreadCount(context.Context, int64) (int64, error)
	MarkRead(context.Context, int64) error
	GetPreference(context.Context, int64) (*store.NotificationPreference, error)
	UpdatePreference(
		context.Context,
		*store.NotificationPreference,
	) (*store.NotificationPreference, error)
}

func NewNotificationService(
	ns NotificationStore,
	us UserReader,
	publisher Publisher,
	mailer Mailer,
) *NotificationService {
	return &NotificationService{
		notificationStore: ns,
		userStore:         us,
		publisher:         publisher,
		mailer:            mailer,
	}
}

// NotifyAll delivers a notification to every active user on the channels
// their preferences allow. Failures are logged per user and do not stop
// the remaining users.
func (s *NotificationService) NotifyAll(
	ctx context.Context,
	category types.NotificationCategory,
	title, message, link string,
) error {
	users, err := s.userStore.ListActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("err listing active users: %w", err)
	}
	for _, u := range users {
		s.notifyIsolated(ctx, u, category, title, message, link)
	}
	return nil
}

func (s *NotificationService) notifyIsolated(
	ctx context.Context,
	u *store.User,
	category types.NotificationCategory,
	title, message, link string,
) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("err notifying user %d: %v\n", u.UserID, r)
		}
	}()
	if err := s.notify(ctx, u, category, title, message, link); err != nil {
		log.Printf("err notifying user %d: %+v\n", u.UserID, err)
	}
}

// NotifyUser delivers a notification to a single user.
func (s *NotificationService) NotifyUser(
	ctx context.Context,
	userID int64,
	category types.NotificationCategory,
	title, message, link string,
) error {
	u, err := s.userStore.ReadUserByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.notify(ctx, u, category, title, message, link)
}

func (s *NotificationService) notify(
	ctx context.Context,
	u *store.User,
	category types.NotificationCategory,
	title, message, link string,
) error {
	p, err := s.notificationStore.GetOrCreateNotificationPreference(ctx, u.UserID)
	if err != nil {
		return fmt.Errorf("err reading preferences: %w", err)
	}

	var errs []error
	if p.Allows(category, types.ChannelInApp) {
		if err := s.createInApp(ctx, u.UserID, category, title, message, link); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Allows(category, types.ChannelEmail) {
		if err := s.mailer.Send(ctx, Email{To: u.Email, Subject: title, Body: message}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *NotificationService) createInApp(
	ctx context.Context,
	userID int64,
	category types.NotificationCategory,
	title, message, link string,
) error {
	n, err := s.notificationStore.CreateNotification(ctx, userID, category, title, message, link)
	if err != nil {
		return fmt.Errorf("err creating notification: %w", err)
	}
	count, err := s.notificationStore.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return fmt.Errorf("err counting unread notifications: %w", err)
	}
	if err := s.publisher.PublishToUser(userID, RealtimeMessage{
		Type:         RealtimeNewNotification,
		Notification: n,
		Count:        count,
	}); err != nil {
		return fmt.Errorf("err publishing notification: %w", err)
	}
	return nil
}

func (s *NotificationService) NotifyTicketAssigned(
	ctx context.Context,
	actorID, assigneeID int64,
	ticket TicketRef,
) error {
	if actorID == assigneeID {
		return nil
	}
	return s.NotifyUser(
		ctx,
		assigneeID,
		types.CategoryTicket,
		"Ticket assigned",
		fmt.Sprintf("You were assigned to ticket #%d: %s", ticket.TicketID, ticket.Title),
		fmt.Sprintf("/tickets/%d", ticket.TicketID),
	)
}

func (s *NotificationService) NotifyCommentAdded(
	ctx context.Context,
	actorID, targetID int64,
	comment CommentRef,
) error {
	if actorID == targetID {
		return nil
	}
	return s.NotifyUser(
		ctx,
		targetID,
		types.CategoryComment,
		fmt.Sprintf("New comment on ticket #%d", comment.TicketID),
		comment.Body,
		fmt.Sprintf("/tickets/%d#comment-%d", comment.TicketID, comment.CommentID),
	)
}

func (s *NotificationService) ListNotifications(
	ctx context.Context,
	userID, limit int64,
) ([]store.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationsLimit
	}
	return s.notificationStore.ListUserNotifications(ctx, userID, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.notificationStore.CountUnreadNotifications(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID int64) error {
	return s.notificationStore.MarkNotificationRead(ctx, notificationID)
}

func (s *NotificationService) GetPreference(
	ctx context.Context,
	userID int64,
) (*store.NotificationPreference, error) {
	return s.notificationStore.GetOrCreateNotificationPreference(ctx, userID)
}

// UpdatePreference stores p for its user, creating the default record first
// when the user has none.
func (s *NotificationService) UpdatePreference(
	ctx context.Context,
	p *store.NotificationPreference,
) (*store.NotificationPreference, error) {
	if _, err := s.notificationStore.GetOrCreateNotificationPreference(
		ctx, p.NotificationPreferenceUserID,
	); err != nil {
		return nil, err
	}
	if p.DigestFrequency == "" {
		p.DigestFrequency = types.DigestImmediate
	}
	if err := s.notificationStore.UpdateNotificationPreference(ctx, p); err != nil {
		return nil, err
	}
	return s.notificationStore.GetOrCreateNotificationPreference(ctx, p.NotificationPreferenceUserID)
}
