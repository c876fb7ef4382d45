package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/haatos/simple-qa/internal/service"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/labstack/echo/v4"
)

const sseKeepAliveInterval = 30 * time.Second

type Subscriber interface {
	Subscribe(ctx context.Context, userID int64) (<-chan *message.Message, error)
}

type NotificationHandler struct {
	notificationService service.NotificationServicer
	subscriber          Subscriber
}

func NewNotificationHandler(
	notificationService service.NotificationServicer,
	subscriber Subscriber,
) *NotificationHandler {
	return &NotificationHandler{notificationService, subscriber}
}

func SetupNotificationRoutes(g *echo.Group, h *NotificationHandler) {
	g.GET("/users/:user_id/notifications", h.GetNotifications)
	g.GET("/users/:user_id/notifications/sse", h.GetNotificationsSSE)
	g.PATCH("/notifications/:notification_id/read", h.PatchNotificationRead)
	g.GET("/users/:user_id/notification-preferences", h.GetNotificationPreference)
	g.PUT("/users/:user_id/notification-preferences", h.PutNotificationPreference)
}

type notificationsResponse struct {
	Notifications []store.Notification `json:"notifications"`
	UnreadCount   int64                `json:"unread_count"`
}

func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	np := new(NotificationParams)
	if err := c.Bind(np); err != nil {
		return newError(err, http.StatusBadRequest, "invalid user id")
	}

	ctx := c.Request().Context()
	notifications, err := h.notificationService.ListNotifications(ctx, np.UserID, np.Limit)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to list notifications")
	}
	count, err := h.notificationService.UnreadCount(ctx, np.UserID)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to count unread notifications")
	}
	if notifications == nil {
		notifications = []store.Notification{}
	}

	return c.JSON(http.StatusOK, notificationsResponse{notifications, count})
}

func (h *NotificationHandler) PatchNotificationRead(c echo.Context) error {
	np := new(NotificationParams)
	if err := c.Bind(np); err != nil {
		return newError(err, http.StatusBadRequest, "invalid notification id")
	}

	if err := h.notificationService.MarkRead(c.Request().Context(), np.NotificationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "notification not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to mark notification read")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetNotificationsSSE streams realtime notification messages for a user
// until the client disconnects.
func (h *NotificationHandler) GetNotificationsSSE(c echo.Context) error {
	np := new(NotificationParams)
	if err := c.Bind(np); err != nil {
		return newError(err, http.StatusBadRequest, "invalid user id")
	}

	ctx := c.Request().Context()
	messages, err := h.subscriber.Subscribe(ctx, np.UserID)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to subscribe to notifications")
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepAlive.C:
			if err := keepAliveEvent().writeTo(w); err != nil {
				log.Println("err writing keep-alive:", err)
				return nil
			}
			w.Flush()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := notificationEvent(msg).writeTo(w); err != nil {
				log.Println("err writing notification event:", err)
			}
			w.Flush()
			msg.Ack()
		}
	}
}

func (h *NotificationHandler) GetNotificationPreference(c echo.Context) error {
	np := new(NotificationParams)
	if err := c.Bind(np); err != nil {
		return newError(err, http.StatusBadRequest, "invalid user id")
	}

	p, err := h.notificationService.GetPreference(c.Request().Context(), np.UserID)
	if err != nil {
		return preferenceError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *NotificationHandler) PutNotificationPreference(c echo.Context) error {
	var userID int64
	if err := echo.PathParamsBinder(c).MustInt64("user_id", &userID).BindError(); err != nil {
		return newError(err, http.StatusBadRequest, "invalid user id")
	}
	p := new(store.NotificationPreference)
	if err := (&echo.DefaultBinder{}).BindBody(c, p); err != nil {
		return newError(err, http.StatusBadRequest, "invalid notification preference data")
	}
	p.NotificationPreferenceUserID = userID

	updated, err := h.notificationService.UpdatePreference(c.Request().Context(), p)
	if err != nil {
		return preferenceError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func preferenceError(err error) error {
	if errors.Is(err, sql.ErrNoRows) || isForeignKeyConstraintError(err) {
		return newError(err, http.StatusNotFound, "user not found")
	}
	return newError(err, http.StatusInternalServerError, "unable to handle notification preferences")
}
