package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-todo/domain"
)

// Register wires up all routes on the provided Echo instance. The auth gate
// is installed as router middleware so unmatched paths are gated too.
func Register(e *echo.Echo, store Storage, auth *Auth, broker *Broker, notifier Notifier, log *log.Logger) {
	e.JSONSerializer = sonicSerializer{}
	e.Use(GzipRequestMiddleware())
	e.Use(auth.Gate())

	e.GET("/", indexPage)
	e.GET("/login", loginPage)
	e.GET("/healthz", healthz(store))

	e.POST("/api/auth/login", login(auth, log))
	e.GET("/api/auth/logout", logout(auth))

	e.GET("/api/todos", listTodos(store, log))
	e.POST("/api/todos", createTodo(store, notifier, log))
	e.GET("/api/todos/stream", streamTodos(store, broker, log))
	e.PUT("/api/todos/:id", updateTodo(store, notifier, log))
	e.DELETE("/api/todos/:id", deleteTodo(store, notifier, log))
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	}
}

func listTodos(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newTodoRequestMetrics(c.Request().Context(), logger, http.MethodGet, "/api/todos")
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		start := time.Now()
		todos, fetchErr := store.FindAll(ctx)
		metrics.ObserveStorage(time.Since(start))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			logger.WithError(fetchErr).Error("fetch todos")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to fetch todos"})
		}
		if todos == nil {
			todos = []domain.Task{}
		}
		metrics.SetTodosReturned(len(todos))
		return c.JSON(http.StatusOK, todos)
	}
}

func createTodo(store Storage, notifier Notifier, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newTodoRequestMetrics(c.Request().Context(), logger, http.MethodPost, "/api/todos")
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var req createTodoRequest
		if decodeErr := decodeBody(c, &req); decodeErr != nil && !errors.Is(decodeErr, errEmptyBody) {
			metrics.SetErrorStage("decode")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		}
		if strings.TrimSpace(req.Content) == "" {
			metrics.SetErrorStage("validation")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Content is required"})
		}
		status, parseErr := domain.ParseStatus(req.Status)
		if parseErr != nil {
			metrics.SetErrorStage("validation")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid status"})
		}

		task := domain.NewTask(uuid.NewString(), req.Content, status)
		metrics.SetTodoID(task.ID)
		start := time.Now()
		created, insertErr := store.Insert(ctx, task)
		metrics.ObserveStorage(time.Since(start))
		if insertErr != nil {
			metrics.SetErrorStage("storage")
			logger.WithError(insertErr).WithField("todo", task.ID).Error("create todo")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to create todo"})
		}
		notifier.Notify(ctx, updateCreated, created.ID)
		return c.JSON(http.StatusCreated, created)
	}
}

func updateTodo(store Storage, notifier Notifier, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newTodoRequestMetrics(c.Request().Context(), logger, http.MethodPut, "/api/todos/:id")
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			metrics.SetErrorStage("validation")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "ID is required"})
		}
		metrics.SetTodoID(id)

		var req updateTodoRequest
		if decodeErr := decodeBody(c, &req); decodeErr != nil && !errors.Is(decodeErr, errEmptyBody) {
			metrics.SetErrorStage("decode")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		}
		patch := domain.TaskPatch{Content: req.Content}
		if req.Status != nil {
			status := domain.Status(*req.Status)
			patch.Status = &status
		}
		if validErr := patch.Validate(); validErr != nil {
			metrics.SetErrorStage("validation")
			msg := "Invalid status"
			if errors.Is(validErr, domain.ErrContentEmpty) {
				msg = "Content cannot be empty"
			}
			return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
		}

		start := time.Now()
		updated, updateErr := store.Update(ctx, id, patch)
		metrics.ObserveStorage(time.Since(start))
		if errors.Is(updateErr, domain.ErrNotFound) {
			metrics.SetErrorStage("not_found")
			return c.JSON(http.StatusNotFound, errorResponse{Error: "Todo not found"})
		}
		if updateErr != nil {
			metrics.SetErrorStage("storage")
			logger.WithError(updateErr).WithField("todo", id).Error("update todo")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to update todo"})
		}
		notifier.Notify(ctx, updateUpdated, id)
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteTodo(store Storage, notifier Notifier, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newTodoRequestMetrics(c.Request().Context(), logger, http.MethodDelete, "/api/todos/:id")
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			metrics.SetErrorStage("validation")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "ID is required"})
		}
		metrics.SetTodoID(id)

		start := time.Now()
		_, deleteErr := store.Delete(ctx, id)
		metrics.ObserveStorage(time.Since(start))
		if errors.Is(deleteErr, domain.ErrNotFound) {
			metrics.SetErrorStage("not_found")
			return c.JSON(http.StatusNotFound, errorResponse{Error: "Todo not found"})
		}
		if deleteErr != nil {
			metrics.SetErrorStage("storage")
			logger.WithError(deleteErr).WithField("todo", id).Error("delete todo")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to delete todo"})
		}
		notifier.Notify(ctx, updateDeleted, id)
		return c.JSON(http.StatusOK, messageResponse{Message: "Todo deleted successfully"})
	}
}
