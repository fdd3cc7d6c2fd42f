package dto

// CreateTaskRequest is the body of POST /tasks/.
type CreateTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateTaskRequest is the body of PUT /tasks/{id}. Absent fields keep their
// prior values.
type UpdateTaskRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// TaskResponse is the wire representation of a task. Timestamps are RFC 3339
// strings.
type TaskResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}
