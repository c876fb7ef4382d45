package types

// EventType names an event delivered to webhook subscribers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket.created"
	EventTicketUpdated    EventType = "ticket.updated"
	EventTicketClosed     EventType = "ticket.closed"
	EventTestCaseCreated  EventType = "test_case.created"
	EventTestCaseUpdated  EventType = "test_case.updated"
	EventTestRunPassed    EventType = "test_run.passed"
	EventTestRunFailed    EventType = "test_run.failed"
	EventTestRunCompleted EventType = "test_run.completed"
	EventSprintStarted    EventType = "sprint.started"
	EventSprintCompleted  EventType = "sprint.completed"
	EventCommentCreated   EventType = "comment.created"
	EventUserInvited      EventType = "user.invited"
	EventWebhookPing      EventType = "webhook.ping"
)

var EventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketClosed,
	EventTestCaseCreated,
	EventTestCaseUpdated,
	EventTestRunPassed,
	EventTestRunFailed,
	EventTestRunCompleted,
	EventSprintStarted,
	EventSprintCompleted,
	EventCommentCreated,
	EventUserInvited,
}
