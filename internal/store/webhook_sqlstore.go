package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type WebhookSQLStore struct {
	rdb, rwdb *sql.DB
}

func NewWebhookSQLStore(rdb, rwdb *sql.DB) *WebhookSQLStore {
	return &WebhookSQLStore{rdb, rwdb}
}

func (store *WebhookSQLStore) CreateWebhook(
	ctx context.Context,
	projectID int64,
	url, secretToken, events string,
	active bool,
) (*Webhook, error) {
	w := &Webhook{
		WebhookProjectID: projectID,
		URL:              url,
		SecretToken:      secretToken,
		Events:           events,
		Active:           active,
	}
	query := `insert into webhooks (
		webhook_project_id,
		url,
		secret_token,
		events,
		active
	)
	values ($1, $2, $3, $4, $5)
	returning webhook_id, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, w, query,
		w.WebhookProjectID,
		w.URL,
		w.SecretToken,
		w.Events,
		w.Active,
	); err != nil {
		return nil, err
	}
	return w, nil
}

func (store *WebhookSQLStore) ReadWebhookByID(ctx context.Context, id int64) (*Webhook, error) {
	w := new(Webhook)
	query := "select * from webhooks where webhook_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, w, query, id); err != nil {
		return nil, err
	}
	return w, nil
}

func (store *WebhookSQLStore) ListActiveProjectWebhooks(
	ctx context.Context,
	projectID int64,
) ([]*Webhook, error) {
	query := `select * from webhooks
	where webhook_project_id = $1 and active = true
	order by webhook_id`
	webhooks := make([]*Webhook, 0)
	err := sqlscan.Select(ctx, store.rdb, &webhooks, query, projectID)
	return webhooks, err
}

// IncrementWebhookDeliveryCount bumps delivery_count in a single statement
// so concurrent deliveries to the same webhook do not overwrite each other.
func (store *WebhookSQLStore) IncrementWebhookDeliveryCount(
	ctx context.Context,
	id int64,
	triggeredOn time.Time,
) error {
	query := `update webhooks
	set delivery_count = delivery_count + 1,
		last_triggered_on = $1
	where webhook_id = $2`
	res, err := store.rwdb.ExecContext(ctx, query, dbTime(triggeredOn), id)
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

func (store *WebhookSQLStore) CreateWebhookDelivery(
	ctx context.Context,
	d *WebhookDelivery,
) (*WebhookDelivery, error) {
	query := `insert into webhook_deliveries (
		webhook_delivery_webhook_id,
		delivery_uuid,
		event,
		http_status,
		request_body,
		response_body,
		success,
		duration_ms
	)
	values ($1, $2, $3, $4, $5, $6, $7, $8)
	returning webhook_delivery_id, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, d, query,
		d.WebhookDeliveryWebhookID,
		d.DeliveryUUID,
		d.Event,
		d.HTTPStatus,
		d.RequestBody,
		d.ResponseBody,
		d.Success,
		d.DurationMS,
	); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *WebhookSQLStore) ListWebhookDeliveries(
	ctx context.Context,
	webhookID, limit int64,
) ([]WebhookDelivery, error) {
	query := `select * from webhook_deliveries
	where webhook_delivery_webhook_id = $1
	order by webhook_delivery_id desc
	limit $2`
	deliveries := make([]WebhookDelivery, 0)
	err := sqlscan.Select(ctx, store.rdb, &deliveries, query, webhookID, limit)
	return deliveries, err
}

func (store *WebhookSQLStore) DeleteWebhookDeliveriesBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	query := "delete from webhook_deliveries where created_on < $1"
	res, err := store.rwdb.ExecContext(ctx, query, dbTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
