package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/haatos/simple-qa/internal/service"
	"github.com/labstack/echo/v4"
)

type WebhookHandler struct {
	webhookService service.WebhookServicer
}

func NewWebhookHandler(webhookService service.WebhookServicer) *WebhookHandler {
	return &WebhookHandler{webhookService}
}

func SetupWebhookRoutes(g *echo.Group, h *WebhookHandler) {
	g.POST("/projects/:project_id/webhooks", h.PostWebhook)
	g.GET("/webhooks/:webhook_id", h.GetWebhook)
	g.GET("/webhooks/:webhook_id/deliveries", h.GetWebhookDeliveries)
	g.POST("/webhooks/:webhook_id/ping", h.PostWebhookPing)
}

func (h *WebhookHandler) PostWebhook(c echo.Context) error {
	wp := new(WebhookParams)
	if err := c.Bind(wp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid webhook data")
	}

	w, err := h.webhookService.CreateWebhook(
		c.Request().Context(),
		wp.ProjectID,
		strings.TrimSpace(wp.URL),
		wp.SecretToken,
		wp.Events,
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWebhookURL), errors.Is(err, service.ErrInvalidEvent):
			return newError(err, http.StatusBadRequest, err.Error())
		case isForeignKeyConstraintError(err):
			return newError(err, http.StatusNotFound, "project not found")
		default:
			return newError(err, http.StatusInternalServerError, "unable to create webhook")
		}
	}

	return c.JSON(http.StatusCreated, w)
}

func (h *WebhookHandler) GetWebhook(c echo.Context) error {
	wp := new(WebhookParams)
	if err := c.Bind(wp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid webhook id")
	}

	w, err := h.webhookService.GetWebhookByID(c.Request().Context(), wp.WebhookID)
	if err != nil {
		return webhookReadError(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WebhookHandler) GetWebhookDeliveries(c echo.Context) error {
	lp := new(ListDeliveriesParams)
	if err := c.Bind(lp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid webhook id")
	}

	deliveries, err := h.webhookService.ListDeliveries(c.Request().Context(), lp.WebhookID, lp.Limit)
	if err != nil {
		return webhookReadError(err)
	}
	return c.JSON(http.StatusOK, deliveries)
}

// PostWebhookPing sends a webhook.ping event. A failed delivery is still a
// successful request; the outcome is reported in the body.
func (h *WebhookHandler) PostWebhookPing(c echo.Context) error {
	wp := new(WebhookParams)
	if err := c.Bind(wp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid webhook id")
	}

	ok, err := h.webhookService.SendTestPing(c.Request().Context(), wp.WebhookID)
	if err != nil {
		return webhookReadError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": ok})
}

func webhookReadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return newError(err, http.StatusNotFound, "webhook not found")
	}
	return newError(err, http.StatusInternalServerError, "unable to read webhook")
}
