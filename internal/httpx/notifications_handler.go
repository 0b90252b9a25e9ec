package httpx

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/empowher/marketplace/internal/market"
	"github.com/empowher/marketplace/internal/redisx"
)

type NotificationsHandler struct {
	Service *market.Service
	Redis   *redis.Client // optional unread-count cache
	Log     *slog.Logger
}

func (h *NotificationsHandler) Register(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.list)
		r.Put("/read-all", h.readAll)
		r.Put("/{id}/read", h.read)
		r.Delete("/{id}", h.remove)
		r.Delete("/", h.clear)
	})
}

func (h *NotificationsHandler) list(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Service.NotificationsFor(r.Context(), actorFrom(r))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheUnread(r, actorFrom(r).UserID, feed.UnreadCount)
	n := len(feed.Notifications)
	writeJSON(w, http.StatusOK, response{Success: true, Data: feed, Count: &n})
}

func (h *NotificationsHandler) read(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.MarkNotificationRead(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.dropUnread(r, actorFrom(r).UserID)
	ok(w, http.StatusOK, n, "Notification marked as read")
}

func (h *NotificationsHandler) readAll(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkAllNotificationsRead(r.Context(), actorFrom(r)); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheUnread(r, actorFrom(r).UserID, 0)
	ok(w, http.StatusOK, nil, "All notifications marked as read")
}

func (h *NotificationsHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteNotification(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.dropUnread(r, actorFrom(r).UserID)
	ok(w, http.StatusOK, nil, "Notification deleted successfully")
}

func (h *NotificationsHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ClearNotifications(r.Context(), actorFrom(r)); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheUnread(r, actorFrom(r).UserID, 0)
	ok(w, http.StatusOK, nil, "All notifications cleared successfully")
}

func (h *NotificationsHandler) cacheUnread(r *http.Request, userID string, n int) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyUnreadCount, userID)
	_ = h.Redis.Set(r.Context(), key, n, redisx.TTLUnreadCount).Err()
}

func (h *NotificationsHandler) dropUnread(r *http.Request, userID string) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyUnreadCount, userID)
	_ = h.Redis.Del(r.Context(), key).Err()
}
