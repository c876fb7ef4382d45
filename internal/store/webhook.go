package store

import (
	"encoding/json"
	"time"
)

type Webhook struct {
	WebhookID        int64      `json:"id"                param:"webhook_id"`
	WebhookProjectID int64      `json:"project_id"`
	URL              string     `json:"url"               db:"url"`
	SecretToken      string     `json:"-"`
	Active           bool       `json:"active"`
	Events           string     `json:"-"`
	DeliveryCount    int64      `json:"delivery_count"`
	LastTriggeredOn  *time.Time `json:"last_triggered_on"`
	CreatedOn        time.Time  `json:"created_on"`
}

// EventPatterns decodes the persisted subscription list. Text that is not
// a JSON array of strings subscribes to nothing.
func (w *Webhook) EventPatterns() []string {
	var patterns []string
	if err := json.Unmarshal([]byte(w.Events), &patterns); err != nil {
		return nil
	}
	return patterns
}

// WebhookDelivery is one delivery attempt. Rows are never updated.
type WebhookDelivery struct {
	WebhookDeliveryID        int64     `json:"id"`
	WebhookDeliveryWebhookID int64     `json:"webhook_id"`
	DeliveryUUID             string    `json:"delivery_uuid" db:"delivery_uuid"`
	Event                    string    `json:"event"`
	HTTPStatus               int       `json:"http_status"   db:"http_status"`
	RequestBody              string    `json:"request_body"`
	ResponseBody             string    `json:"response_body"`
	Success                  bool      `json:"success"`
	DurationMS               int64     `json:"duration_ms"   db:"duration_ms"`
	CreatedOn                time.Time `json:"created_on"`
}
