package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "kanban-todo/api"

type todoRequestMetrics struct {
	logger          *log.Logger
	span            trace.Span
	route           string
	method          string
	start           time.Time
	storageDuration time.Duration
	todosReturned   int
	todoID          string
	errorStage      string
}

func newTodoRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*todoRequestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		))
	return &todoRequestMetrics{
		logger:        logger,
		span:          span,
		route:         route,
		method:        method,
		start:         time.Now(),
		todosReturned: -1,
	}, ctx
}

func (m *todoRequestMetrics) ObserveStorage(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.storageDuration = duration
}

func (m *todoRequestMetrics) SetTodosReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.todosReturned = count
}

func (m *todoRequestMetrics) SetTodoID(id string) {
	m.todoID = id
}

func (m *todoRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *todoRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	if m.span != nil {
		m.span.SetAttributes(attribute.Int("http.status_code", status))
		if m.todoID != "" {
			m.span.SetAttributes(attribute.String("kanban.todo.id", m.todoID))
		}
		if m.todosReturned >= 0 {
			m.span.SetAttributes(attribute.Int("kanban.todos.returned", m.todosReturned))
		}
		if m.errorStage != "" {
			m.span.SetAttributes(attribute.String("kanban.error_stage", m.errorStage))
		}
		if err != nil {
			m.span.RecordError(err)
		}
		if status >= 500 || err != nil {
			m.span.SetStatus(codes.Error, m.errorStage)
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"route":    m.route,
		"method":   m.method,
		"status":   status,
		"total_ms": durationToMillis(time.Since(m.start)),
	}
	if m.storageDuration > 0 {
		fields["storage_ms"] = durationToMillis(m.storageDuration)
	}
	if m.todosReturned >= 0 {
		fields["todos_returned"] = m.todosReturned
	}
	if m.todoID != "" {
		fields["todo"] = m.todoID
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	entry := m.logger.WithFields(fields)
	if status >= 500 {
		entry.Error("todos.request.metrics")
		return
	}
	entry.Info("todos.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
