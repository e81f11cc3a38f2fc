package api

const maxBodySize = 64 * 1024 // 64 KiB

const (
	updateCreated = "created"
	updateUpdated = "updated"
	updateDeleted = "deleted"
)

// error body for every failed /api/todos request
type errorResponse struct {
	Error string `json:"error"`
}

// DELETE /api/todos/:id response body
type messageResponse struct {
	Message string `json:"message"`
}

// POST /api/todos request body
type createTodoRequest struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}

// PUT /api/todos/:id request body. Clients may echo the whole task back;
// fields other than content and status are ignored.
type updateTodoRequest struct {
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

// POST /api/auth/login request body
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// /api/auth/* response body
type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
