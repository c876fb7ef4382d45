package store

import (
	"time"

	"github.com/haatos/simple-qa/internal/types"
)

type Notification struct {
	NotificationID     int64                      `json:"id"         param:"notification_id"`
	NotificationUserID int64                      `json:"user_id"`
	Category           types.NotificationCategory `json:"category"`
	Title              string                     `json:"title"`
	Message            string                     `json:"message"`
	Link               string                     `json:"link"`
	Read               bool                       `json:"read"`
	CreatedOn          time.Time                  `json:"created_on"`
}

// NotificationPreference holds a user's channel switches and one in-app and
// email toggle per category.
type NotificationPreference struct {
	NotificationPreferenceUserID int64     `json:"user_id"`
	InAppEnabled                 bool      `json:"in_app_enabled"`
	EmailEnabled                 bool      `json:"email_enabled"`
	DigestFrequency              string    `json:"digest_frequency"`
	TestRunInApp                 bool      `json:"test_run_in_app"`
	TestRunEmail                 bool      `json:"test_run_email"`
	TicketInApp                  bool      `json:"ticket_in_app"`
	TicketEmail                  bool      `json:"ticket_email"`
	TestCaseInApp                bool      `json:"test_case_in_app"`
	TestCaseEmail                bool      `json:"test_case_email"`
	SprintInApp                  bool      `json:"sprint_in_app"`
	SprintEmail                  bool      `json:"sprint_email"`
	CommentInApp                 bool      `json:"comment_in_app"`
	CommentEmail                 bool      `json:"comment_email"`
	InvitationInApp              bool      `json:"invitation_in_app"`
	InvitationEmail              bool      `json:"invitation_email"`
	UpdatedOn                    time.Time `json:"updated_on"`
}

func DefaultNotificationPreference(userID int64) *NotificationPreference {
	return &NotificationPreference{
		NotificationPreferenceUserID: userID,
		InAppEnabled:                 true,
		EmailEnabled:                 true,
		DigestFrequency:              types.DigestImmediate,
		TestRunInApp:                 true,
		TestRunEmail:                 true,
		TicketInApp:                  true,
		TicketEmail:                  true,
		TestCaseInApp:                true,
		TestCaseEmail:                true,
		SprintInApp:                  true,
		SprintEmail:                  true,
		CommentInApp:                 true,
		CommentEmail:                 true,
		InvitationInApp:              true,
		InvitationEmail:              true,
	}
}

func (p *NotificationPreference) toggles(category types.NotificationCategory) (inApp, email, ok bool) {
	switch category {
	case types.CategoryTestRun:
		return p.TestRunInApp, p.TestRunEmail, true
	case types.CategoryTicket:
		return p.TicketInApp, p.TicketEmail, true
	case types.CategoryTestCase:
		return p.TestCaseInApp, p.TestCaseEmail, true
	case types.CategorySprint:
		return p.SprintInApp, p.SprintEmail, true
	case types.CategoryComment:
		return p.CommentInApp, p.CommentEmail, true
	case types.CategoryInvitation:
		return p.InvitationInApp, p.InvitationEmail, true
	}
	return false, false, false
}

// Allows reports whether a notification of category may be sent on
// channel: the channel must be enabled globally and for the category.
// Unknown categories are never delivered.
func (p *NotificationPreference) Allows(
	category types.NotificationCategory,
	channel types.Channel,
) bool {
	inApp, email, ok := p.toggles(category)
	if !ok {
		return false
	}
	switch channel {
	case types.ChannelInApp:
		return p.InAppEnabled && inApp
	case types.ChannelEmail:
		return p.EmailEnabled && email
	}
	return false
}
