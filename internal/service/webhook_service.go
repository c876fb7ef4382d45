package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/security"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/types"
	"github.com/haatos/simple-qa/internal/util"
)

const (
	UnsignedSignature      = "sha256=unsigned"
	requestBodyLimit       = 2000
	responseBodyLimit      = 1000
	defaultWebhookTimeout  = 10 * time.Second
	defaultDeliveriesLimit = 50
)

type WebhookWriter interface {
	CreateWebhook(context.Context, int64, string, string, string, bool) (*store.Webhook, error)
	IncrementWebhookDeliveryCount(context.Context, int64, time.Time) error
	CreateWebhookDelivery(context.Context, *store.WebhookDelivery) (*store.WebhookDelivery, error)
	DeleteWebhookDeliveriesBefore(context.Context, time.Time) (int64, error)
}

type WebhookReader interface {
	ReadWebhookByID(context.Context, int64) (*store.Webhook, error)
	ListActiveProjectWebhooks(context.Context, int64) ([]*store.Webhook, error)
	ListWebhookDeliveries(context.Context, int64, int64) ([]store.WebhookDelivery, error)
}

type WebhookStore interface {
	WebhookWriter
	WebhookReader
}

// WebhookEnvelope is the JSON body of every outbound webhook request.
type WebhookEnvelope struct {
	Event     types.EventType `json:"event"`
	Source    string          `json:"source"`
	Timestamp string          `json:"timestamp"`
	Data      any             `json:"data"`
}

type WebhookService struct {
	webhookStore WebhookStore
	aesEncrypter security.Encrypter
	// requests are bounded by timeout through their context
	client  *http.Client
	source  string
	timeout func() time.Duration
}

type WebhookServicer interface {
	CreateWebhook(
		ctx context.Context,
		projectID int64,
		rawURL, secretToken string,
		events []string,
	) (*store.Webhook, error)
	GetWebhookByID(context.Context, int64) (*store.Webhook, error)
	ListDeliveries(ctx context.Context, webhookID, limit int64) ([]store.WebhookDelivery, error)
	SendTestPing(context.Context, int64) (bool, error)
}

func NewWebhookService(
	s WebhookStore,
	aesEncrypter security.Encrypter,
	source string,
) *WebhookService {
	return &WebhookService{
		webhookStore: s,
		aesEncrypter: aesEncrypter,
		client:       &http.Client{},
		source:       source,
		timeout: func() time.Duration {
			return internal.CurrentConfiguration().WebhookTimeout.Duration()
		},
	}
}

// MatchesEvent reports whether any subscription pattern selects eventType.
// A pattern is "*", an exact event name or a "<prefix>.*" wildcard.
func MatchesEvent(patterns []string, eventType types.EventType) bool {
	event := string(eventType)
	for _, p := range patterns {
		if p == "*" || p == event {
			return true
		}
		if prefix, ok := strings.CutSuffix(p, ".*"); ok && strings.HasPrefix(event, prefix) {
			return true
		}
	}
	return false
}

// Sign returns the X-Signature header value for body.
func Sign(secret string, body []byte) string {
	if secret == "" {
		return UnsignedSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// DeliverEvent sends eventType to every active webhook of the project that
// subscribes to it and returns how many webhooks matched. Only a failure to
// list the webhooks is returned; per-webhook failures are logged.
func (s *WebhookService) DeliverEvent(
	ctx context.Context,
	projectID int64,
	eventType types.EventType,
	payload any,
) (int, error) {
	webhooks, err := s.webhookStore.ListActiveProjectWebhooks(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("err listing webhooks for project %d: %w", projectID, err)
	}
	matched := 0
	for _, w := range webhooks {
		if !MatchesEvent(w.EventPatterns(), eventType) {
			continue
		}
		matched++
		s.deliverIsolated(ctx, w, eventType, payload)
	}
	return matched, nil
}

func (s *WebhookService) deliverIsolated(
	ctx context.Context,
	w *store.Webhook,
	eventType types.EventType,
	payload any,
) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("err delivering %s to webhook %d: %v\n", eventType, w.WebhookID, r)
		}
	}()
	if !s.Deliver(ctx, w, eventType, payload) {
		log.Printf("webhook %d delivery of %s was unsuccessful\n", w.WebhookID, eventType)
	}
}

// Deliver sends one signed request to w and records the attempt. It never
// fails; the result only reports whether the target answered with a 2xx
// status.
func (s *WebhookService) Deliver(
	ctx context.Context,
	w *store.Webhook,
	eventType types.EventType,
	payload any,
) bool {
	d := &store.WebhookDelivery{
		WebhookDeliveryWebhookID: w.WebhookID,
		DeliveryUUID:             uuid.NewString(),
		Event:                    string(eventType),
	}

	start := time.Now()
	body, status, responseBody, err := s.send(ctx, w, eventType, d.DeliveryUUID, payload)
	d.DurationMS = time.Since(start).Milliseconds()
	d.RequestBody = util.Truncate(string(body), requestBodyLimit)
	if err != nil {
		d.HTTPStatus = 0
		d.ResponseBody = util.Truncate(err.Error(), responseBodyLimit)
	} else {
		d.HTTPStatus = status
		d.ResponseBody = util.Truncate(responseBody, responseBodyLimit)
		d.Success = status >= 200 && status <= 299
	}

	// recorded independently; a failure of one does not skip the other
	if _, err := s.webhookStore.CreateWebhookDelivery(context.WithoutCancel(ctx), d); err != nil {
		log.Printf("err recording delivery for webhook %d: %+v\n", w.WebhookID, err)
	}
	if err := s.webhookStore.IncrementWebhookDeliveryCount(
		context.WithoutCancel(ctx),
		w.WebhookID,
		time.Now().UTC(),
	); err != nil {
		log.Printf("err updating delivery count for webhook %d: %+v\n", w.WebhookID, err)
	}
	return d.Success
}

func (s *WebhookService) send(
	ctx context.Context,
	w *store.Webhook,
	eventType types.EventType,
	deliveryID string,
	payload any,
) ([]byte, int, string, error) {
	body, err := json.Marshal(WebhookEnvelope{
		Event:     eventType,
		Source:    s.source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      payload,
	})
	if err != nil {
		return nil, 0, "", fmt.Errorf("err encoding payload: %w", err)
	}

	secret, err := s.aesEncrypter.DecryptAES(w.SecretToken)
	if err != nil {
		return body, 0, "", fmt.Errorf("err decrypting secret token: %w", err)
	}

	timeout := s.timeout()
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return body, 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event", string(eventType))
	req.Header.Set("X-Signature", Sign(string(secret), body))
	req.Header.Set("X-Delivery", deliveryID)

	resp, err := s.client.Do(req)
	if err != nil {
		return body, 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4*responseBodyLimit))
	if err != nil {
		return body, resp.StatusCode, "", nil
	}
	return body, resp.StatusCode, string(respBody), nil
}

// SendTestPing delivers a webhook.ping event to a single webhook whatever
// its subscriptions.
func (s *WebhookService) SendTestPing(ctx context.Context, webhookID int64) (bool, error) {
	w, err := s.webhookStore.ReadWebhookByID(ctx, webhookID)
	if err != nil {
		return false, err
	}
	return s.Deliver(ctx, w, types.EventWebhookPing, map[string]any{
		"webhook_id": w.WebhookID,
		"message":    "ping",
	}), nil
}

func validateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidWebhookURL
	}
	return nil
}

func validateEventPattern(p string) error {
	if p == "*" || slices.Contains(types.EventTypes, types.EventType(p)) {
		return nil
	}
	if prefix, ok := strings.CutSuffix(p, ".*"); ok && prefix != "" && !strings.Contains(prefix, "*") {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidEvent, p)
}

func (s *WebhookService) CreateWebhook(
	ctx context.Context,
	projectID int64,
	rawURL, secretToken string,
	events []string,
) (*store.Webhook, error) {
	if err := validateWebhookURL(rawURL); err != nil {
		return nil, err
	}
	if events == nil {
		events = []string{}
	}
	for _, e := range events {
		if err := validateEventPattern(e); err != nil {
			return nil, err
		}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}
	sealed, err := s.aesEncrypter.EncryptAES(secretToken)
	if err != nil {
		return nil, fmt.Errorf("err encrypting secret token: %w", err)
	}
	return s.webhookStore.CreateWebhook(ctx, projectID, rawURL, sealed, string(b), true)
}

func (s *WebhookService) GetWebhookByID(ctx context.Context, webhookID int64) (*store.Webhook, error) {
	return s.webhookStore.ReadWebhookByID(ctx, webhookID)
}

func (s *WebhookService) ListDeliveries(
	ctx context.Context,
	webhookID, limit int64,
) ([]store.WebhookDelivery, error) {
	if limit <= 0 {
		limit = defaultDeliveriesLimit
	}
	if _, err := s.webhookStore.ReadWebhookByID(ctx, webhookID); err != nil {
		return nil, err
	}
	return s.webhookStore.ListWebhookDeliveries(ctx, webhookID, limit)
}

// PruneDeliveries deletes delivery records created before cutoff.
func (s *WebhookService) PruneDeliveries(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.webhookStore.DeleteWebhookDeliveriesBefore(ctx, cutoff)
}
