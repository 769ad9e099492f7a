package internalhttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okaralov/planner/internal/app"
	memorystorage "github.com/okaralov/planner/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	return newRouter(app.New(memorystorage.New()))
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func validEvent() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       1,
		"title":         "dinner",
		"description":   "bring wine",
		"event_time":    "2300-01-01T19:00:00Z",
		"reminder_time": "2300-01-01T18:00:00Z",
	}
}

func TestRoot(t *testing.T) {
	w := doRequest(t, newTestRouter(), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	decodeBody(t, w, &resp)
	require.Equal(t, "Planner API", resp["message"])
}

func TestCreateAndListEvents(t *testing.T) {
	router := newTestRouter()

	w := doRequest(t, router, http.MethodPost, "/events", validEvent())
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]int64
	decodeBody(t, w, &created)
	require.NotZero(t, created["id"])

	w = doRequest(t, router, http.MethodGet, "/events/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var events []map[string]interface{}
	decodeBody(t, w, &events)
	require.Len(t, events, 1)
	require.Equal(t, "dinner", events[0]["title"])
}

func TestCreateEventValidation(t *testing.T) {
	router := newTestRouter()

	t.Run("empty title", func(t *testing.T) {
		body := validEvent()
		body["title"] = ""
		w := doRequest(t, router, http.MethodPost, "/events", body)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]string
		decodeBody(t, w, &resp)
		require.NotEmpty(t, resp["error"])
	})

	t.Run("unparsable time", func(t *testing.T) {
		body := validEvent()
		body["reminder_time"] = "next tuesday"
		w := doRequest(t, router, http.MethodPost, "/events", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reminder after event time", func(t *testing.T) {
		body := validEvent()
		body["reminder_time"] = "2300-01-01T20:00:00Z"
		w := doRequest(t, router, http.MethodPost, "/events", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("broken json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte("{")))
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateEventNotFoundConflation(t *testing.T) {
	router := newTestRouter()

	w := doRequest(t, router, http.MethodPost, "/events", validEvent())
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]int64
	decodeBody(t, w, &created)

	t.Run("foreign owner", func(t *testing.T) {
		body := validEvent()
		body["user_id"] = 2
		w := doRequest(t, router, http.MethodPut, fmt.Sprintf("/events/%d", created["id"]), body)
		require.Equal(t, http.StatusNotFound, w.Code)

		var resp map[string]string
		decodeBody(t, w, &resp)
		require.Equal(t, "not found", resp["error"])
	})

	t.Run("missing event", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPut, "/events/9999", validEvent())
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("own event", func(t *testing.T) {
		body := validEvent()
		body["title"] = "updated"
		w := doRequest(t, router, http.MethodPut, fmt.Sprintf("/events/%d", created["id"]), body)
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRemoveEvent(t *testing.T) {
	router := newTestRouter()

	w := doRequest(t, router, http.MethodPost, "/events", validEvent())
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]int64
	decodeBody(t, w, &created)

	w = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/events/%d?user_id=2", created["id"]), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/events/%d?user_id=1", created["id"]), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/events/%d", created["id"]), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroups(t *testing.T) {
	router := newTestRouter()

	w := doRequest(t, router, http.MethodPost, "/groups", map[string]interface{}{
		"name":     "family",
		"owner_id": 1,
		"members":  []int64{2, 3},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var group struct {
		ID      string  `json:"id"`
		Name    string  `json:"name"`
		Members []int64 `json:"members"`
	}
	decodeBody(t, w, &group)
	require.NotEmpty(t, group.ID)
	require.Equal(t, []int64{1, 2, 3}, group.Members)

	t.Run("get group", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/groups/"+group.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("group events", func(t *testing.T) {
		body := validEvent()
		body["group_id"] = group.ID
		w := doRequest(t, router, http.MethodPost, "/events", body)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doRequest(t, router, http.MethodGet, "/groups/"+group.ID+"/events", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var events []map[string]interface{}
		decodeBody(t, w, &events)
		require.Len(t, events, 1)
	})

	t.Run("user groups", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/users/2/groups", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var groups []map[string]interface{}
		decodeBody(t, w, &groups)
		require.Len(t, groups, 1)
	})

	t.Run("update by non-owner", func(t *testing.T) {
		w := doRequest(t, router, http.MethodPut, "/groups/"+group.ID, map[string]interface{}{
			"name":     "hijacked",
			"owner_id": 2,
		})
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing group", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/groups/group_9_9", nil)
		require.Equal(t, http.StatusNotFound, w.Code)

		var resp map[string]string
		decodeBody(t, w, &resp)
		require.Equal(t, "not found", resp["error"])
	})
}

func TestCORSPreflight(t *testing.T) {
	w := doRequest(t, newTestRouter(), http.MethodOptions, "/events", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
