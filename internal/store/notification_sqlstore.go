package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/haatos/simple-qa/internal/types"
)

type NotificationSQLStore struct {
	rdb, rwdb *sql.DB
}

func NewNotificationSQLStore(rdb, rwdb *sql.DB) *NotificationSQLStore {
	return &NotificationSQLStore{rdb, rwdb}
}

func (store *NotificationSQLStore) CreateNotification(
	ctx context.Context,
	userID int64,
	category types.NotificationCategory,
	title, message, link string,
) (*Notification, error) {
	n := &Notification{
		NotificationUserID: userID,
		Category:           category,
		Title:              title,
		Message:            message,
		Link:               link,
	}
	query := `insert into notifications (
		notification_user_id,
		category,
		title,
		message,
		link
	)
	values ($1, $2, $3, $4, $5)
	returning notification_id, read, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, n, query,
		n.NotificationUserID,
		n.Category,
		n.Title,
		n.Message,
		n.Link,
	); err != nil {
		return nil, err
	}
	return n, nil
}

func (store *NotificationSQLStore) ReadNotificationByID(
	ctx context.Context,
	id int64,
) (*Notification, error) {
	n := new(Notification)
	query := "select * from notifications where notification_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, n, query, id); err != nil {
		return nil, err
	}
	return n, nil
}

func (store *NotificationSQLStore) ListUserNotifications(
	ctx context.Context,
	userID, limit int64,
) ([]Notification, error) {
	query := `select * from notifications
	where notification_user_id = $1
	order by notification_id desc
	limit $2`
	notifications := make([]Notification, 0)
	err := sqlscan.Select(ctx, store.rdb, &notifications, query, userID, limit)
	return notifications, err
}

func (store *NotificationSQLStore) CountUnreadNotifications(
	ctx context.Context,
	userID int64,
) (int64, error) {
	var count int64
	query := `select count(*) from notifications
	where notification_user_id = $1 and read = false`
	err := sqlscan.Get(ctx, store.rwdb, &count, query, userID)
	return count, err
}

func (store *NotificationSQLStore) MarkNotificationRead(ctx context.Context, id int64) error {
	query := "update notifications set read = true where notification_id = $1"
	res, err := store.rwdb.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetOrCreateNotificationPreference returns the user's preferences,
// inserting the all-enabled defaults on first access.
func (store *NotificationSQLStore) GetOrCreateNotificationPreference(
	ctx context.Context,
	userID int64,
) (*NotificationPreference, error) {
	insertQuery := `insert into notification_preferences (notification_preference_user_id)
	values ($1)
	on conflict (notification_preference_user_id) do nothing`
	if _, err := store.rwdb.ExecContext(ctx, insertQuery, userID); err != nil {
		return nil, err
	}

	p := new(NotificationPreference)
	query := `select * from notification_preferences
	where notification_preference_user_id = $1`
	if err := sqlscan.Get(ctx, store.rwdb, p, query, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *NotificationSQLStore) UpdateNotificationPreference(
	ctx context.Context,
	p *NotificationPreference,
) error {
	query := `update notification_preferences
	set in_app_enabled = $1,
		email_enabled = $2,
		digest_frequency = $3,
		test_run_in_app = $4,
		test_run_email = $5,
		ticket_in_app = $6,
		ticket_email = $7,
		test_case_in_app = $8,
		test_case_email = $9,
		sprint_in_app = $10,
		sprint_email = $11,
		comment_in_app = $12,
		comment_email = $13,
		invitation_in_app = $14,
		invitation_email = $15,
		updated_on = $16
	where notification_preference_user_id = $17`
	res, err := store.rwdb.ExecContext(
		ctx, query,
		p.InAppEnabled,
		p.EmailEnabled,
		p.DigestFrequency,
		p.TestRunInApp,
		p.TestRunEmail,
		p.TicketInApp,
		p.TicketEmail,
		p.TestCaseInApp,
		p.TestCaseEmail,
		p.SprintInApp,
		p.SprintEmail,
		p.CommentInApp,
		p.CommentEmail,
		p.InvitationInApp,
		p.InvitationEmail,
		dbTime(time.Now()),
		p.NotificationPreferenceUserID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
