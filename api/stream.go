package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Broker fans mutation notifications out to open stream connections.
type Broker struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan struct{}]struct{})}
}

func (b *Broker) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Broadcast wakes every subscriber. Pending wake-ups coalesce.
func (b *Broker) Broadcast() {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

// Notify implements Notifier for single-instance deployments.
func (b *Broker) Notify(_ context.Context, _, _ string) {
	b.Broadcast()
}

func streamTodos(store Storage, broker *Broker, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		res := c.Response()
		res.Header().Set(echo.HeaderContentType, "text/event-stream")
		res.Header().Set(echo.HeaderCacheControl, "no-cache")
		res.Header().Set(echo.HeaderConnection, "keep-alive")
		res.Header().Set("X-Accel-Buffering", "no")
		flusher, ok := res.Writer.(http.Flusher)
		if !ok {
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "stream unsupported"})
		}
		res.WriteHeader(http.StatusOK)

		ctx := c.Request().Context()
		ch := broker.subscribe()
		defer broker.unsubscribe(ch)
		for {
			todos, err := store.FindAll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.WithError(err).Error("stream fetch todos")
				return nil
			}
			data, err := sonic.Marshal(todos)
			if err != nil {
				logger.WithError(err).Error("stream encode todos")
				return nil
			}
			for _, part := range [][]byte{[]byte("data: "), data, []byte("\n\n")} {
				if _, err := res.Write(part); err != nil {
					return nil
				}
			}
			flusher.Flush()
			select {
			case <-ctx.Done():
				return nil
			case <-ch:
			}
		}
	}
}
