package task

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/task-mgmt/task-api/internal/dto"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	db := setupTestDB(t)
	repo := NewRepository(db)
	service := NewTaskService(repo, nil, nil)
	return NewHandler(service, db)
}

func doRequest(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createTestTask(t *testing.T, h *Handler, name string) dto.TaskResponse {
	t.Helper()
	rec := doRequest(h, http.MethodPost, "/tasks/", fmt.Sprintf(`{"name":%q}`, name))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.TaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandler_CreateTask(t *testing.T) {
	h := newTestHandler(t)

	t.Run("valid request", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/tasks/", `{"name":"Write report","description":"quarterly numbers"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp dto.TaskResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Name != "Write report" {
			t.Errorf("expected name %q, got %q", "Write report", resp.Name)
		}
		if resp.Status != string(StatusCreated) {
			t.Errorf("expected status %q, got %q", StatusCreated, resp.Status)
		}
		if _, err := uuid.Parse(resp.ID); err != nil {
			t.Errorf("expected a UUID id, got %q", resp.ID)
		}
		if resp.CreatedAt == "" || resp.UpdatedAt == "" {
			t.Error("expected timestamps in the response")
		}
	})

	t.Run("missing name", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/tasks/", `{"description":"no name"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(h, http.MethodPost, "/tasks/", `{not json`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})
}

func TestHandler_GetTask(t *testing.T) {
	h := newTestHandler(t)
	created := createTestTask(t, h, "Lookup")

	t.Run("existing", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/tasks/"+created.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp dto.TaskResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ID != created.ID {
			t.Errorf("expected id %s, got %s", created.ID, resp.ID)
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/tasks/"+uuid.NewString(), "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode error body: %v", err)
		}
		if resp["error"] == "" {
			t.Error("expected an error message in the body")
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/tasks/not-a-uuid", "")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})
}

func TestHandler_ListTasks(t *testing.T) {
	h := newTestHandler(t)

	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, createTestTask(t, h, fmt.Sprintf("Task %d", i)).ID)
	}

	rec := doRequest(h, http.MethodPut, "/tasks/"+ids[0], `{"status":"in_progress"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	t.Run("full listing", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/tasks/", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp []dto.TaskResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp) != 4 {
			t.Errorf("expected 4 tasks, got %d", len(resp))
		}
	})

	t.Run("status filter", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/tasks/?status=in_progress", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp []dto.TaskResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp) != 1 || resp[0].ID != ids[0] {
			t.Errorf("expected only task %s, got %+v", ids[0], resp)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/tasks/?offset=1&limit=2", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp []dto.TaskResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp) != 2 {
			t.Errorf("expected 2 tasks, got %d", len(resp))
		}
	})

	t.Run("invalid status filter", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/tasks/?status=archived", "")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := doRequest(h, http.MethodGet, "/tasks/?limit=ten", "")
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})
}

func TestHandler_UpdateTask(t *testing.T) {
	h := newTestHandler(t)
	created := createTestTask(t, h, "Original")

	t.Run("partial update", func(t *testing.T) {
		rec := doRequest(h, http.MethodPut, "/tasks/"+created.ID, `{"status":"in_progress"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp dto.TaskResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Status != string(StatusInProgress) {
			t.Errorf("expected status %q, got %q", StatusInProgress, resp.Status)
		}
		if resp.Name != created.Name {
			t.Errorf("expected untouched name %q, got %q", created.Name, resp.Name)
		}
		if resp.UpdatedAt == created.UpdatedAt {
			t.Error("expected updated_at to change")
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		rec := doRequest(h, http.MethodPut, "/tasks/"+created.ID, `{"status":"done"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("missing task", func(t *testing.T) {
		rec := doRequest(h, http.MethodPut, "/tasks/"+uuid.NewString(), `{"name":"anything"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandler_DeleteTask(t *testing.T) {
	h := newTestHandler(t)
	created := createTestTask(t, h, "Short-lived")

	t.Run("delete then get", func(t *testing.T) {
		rec := doRequest(h, http.MethodDelete, "/tasks/"+created.ID, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("expected empty body, got %q", rec.Body.String())
		}

		rec = doRequest(h, http.MethodGet, "/tasks/"+created.ID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", rec.Code)
		}
	})

	t.Run("repeated delete", func(t *testing.T) {
		rec := doRequest(h, http.MethodDelete, "/tasks/"+created.ID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandler_Health(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected status %q, got %q", "healthy", resp.Status)
	}
	if resp.Timestamp == "" {
		t.Error("expected a timestamp")
	}
}
