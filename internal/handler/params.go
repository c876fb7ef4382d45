package handler

type TestRunParams struct {
	ProjectID     int64   `param:"project_id"`
	RunID         int64   `param:"run_id"`
	UserID        *int64  `                   json:"user_id"`
	RepositoryURL *string `                   json:"repository_url"`
	Branch        string  `                   json:"branch"`
}

type ListTestRunsParams struct {
	ProjectID int64 `param:"project_id"`
	Limit     int64 `                   query:"limit"`
}

type WebhookParams struct {
	ProjectID   int64    `param:"project_id"`
	WebhookID   int64    `param:"webhook_id"`
	URL         string   `                   json:"url"`
	SecretToken string   `                   json:"secret_token"`
	Events      []string `                   json:"events"`
}

type ListDeliveriesParams struct {
	WebhookID int64 `param:"webhook_id"`
	Limit     int64 `                   query:"limit"`
}

type NotificationParams struct {
	UserID         int64 `param:"user_id"`
	NotificationID int64 `param:"notification_id"`
	Limit          int64 `                        query:"limit"`
}
