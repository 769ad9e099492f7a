package internalhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okaralov/planner/internal/app"
	"github.com/okaralov/planner/internal/storage"
	log "github.com/sirupsen/logrus"
)

const (
	errInvalidBody   = "invalid request body"
	errInvalidID     = "invalid id"
	errInvalidUserID = "invalid user id"
	errNotFound      = "not found"
	errInternal      = "internal server error"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type handler struct {
	app *app.App
}

func newHandler(a *app.App) *handler {
	return &handler{app: a}
}

type eventRequest struct {
	UserID       int64  `json:"user_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	EventTime    string `json:"event_time"`
	ReminderTime string `json:"reminder_time"`
	GroupID      string `json:"group_id"`
}

type groupRequest struct {
	Name    string  `json:"name"`
	OwnerID int64   `json:"owner_id"`
	Members []int64 `json:"members"`
}

func (r eventRequest) toEvent() (storage.Event, error) {
	eventTime, err := parseTime(r.EventTime)
	if err != nil {
		return storage.Event{}, fmt.Errorf("unparsable event_time %q: %w", r.EventTime, storage.ErrIncorrectEventTime)
	}
	reminderTime, err := parseTime(r.ReminderTime)
	if err != nil {
		return storage.Event{}, fmt.Errorf("unparsable reminder_time %q: %w", r.ReminderTime, storage.ErrIncorrectEventTime)
	}
	return storage.Event{
		OwnerID:      r.UserID,
		Title:        r.Title,
		Description:  r.Description,
		EventTime:    eventTime,
		ReminderTime: reminderTime,
		GroupID:      r.GroupID,
	}, nil
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Planner API"})
}

func (h *handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	event, err := req.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.app.CreateEvent(r.Context(), event)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidID)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	event, err := req.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.app.UpdateEvent(r.Context(), id, req.UserID, event); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) removeEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidID)
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	if err := h.app.RemoveEvent(r.Context(), id, userID); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// userEvents serves GET /events/{id} where id is a user id, matching the
// original API shape.
func (h *handler) userEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	events, err := h.app.GetEventsByUser(r.Context(), userID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	group, err := h.app.CreateGroup(r.Context(), req.OwnerID, req.Name, req.Members)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (h *handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	group := storage.Group{Name: req.Name, Members: req.Members}
	if err := h.app.UpdateGroup(r.Context(), id, req.OwnerID, group); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) removeGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID, err := strconv.ParseInt(r.URL.Query().Get("owner_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	if err := h.app.RemoveGroup(r.Context(), id, ownerID); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) group(w http.ResponseWriter, r *http.Request) {
	group, err := h.app.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *handler) groupEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.app.GetEventsByGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handler) userGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	groups, err := h.app.GetGroupsByUser(r.Context(), userID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, errNotFound)
	case errors.Is(err, storage.ErrEmptyTitle),
		errors.Is(err, storage.ErrEmptyGroupName),
		errors.Is(err, storage.ErrIncorrectEventTime),
		errors.Is(err, storage.ErrIncorrectReminderTime):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("storage failure: %v", err)
		writeError(w, http.StatusInternalServerError, errInternal)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", value)
}
