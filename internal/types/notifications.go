package types

type NotificationCategory string

const (
	CategoryTestRun    NotificationCategory = "test_run"
	CategoryTicket     NotificationCategory = "ticket"
	CategoryTestCase   NotificationCategory = "test_case"
	CategorySprint     NotificationCategory = "sprint"
	CategoryComment    NotificationCategory = "comment"
	CategoryInvitation NotificationCategory = "invitation"
)

type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

const DigestImmediate = "immediate"
