package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban-todo/api"
	"kanban-todo/domain"
	"kanban-todo/storage"
)

func startServer(t *testing.T, auth *api.Auth) string {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "kanban.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger, _ := test.NewNullLogger()
	broker := api.NewBroker()
	e := echo.New()
	api.Register(e, store, auth, broker, broker, logger)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddMoveToggleRemove(t *testing.T) {
	url := startServer(t, api.NewAuth("", "", "s", false))

	out, err := run(t, "--server", url, "add", "write", "tests")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = run(t, "--server", url, "move", id, "in-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "In Progress (1)")
	assert.Contains(t, out, "write tests")

	out, err = run(t, "--server", url, "toggle", id)
	require.NoError(t, err)
	assert.Equal(t, id+" -> done\n", out)

	out, err = run(t, "--server", url, "toggle", id, "--reopen-to", "in-progress")
	require.NoError(t, err)
	assert.Equal(t, id+" -> in-progress\n", out)

	out, err = run(t, "--server", url, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] "+id+"  write tests (In Progress)")

	_, err = run(t, "--server", url, "rm", id)
	require.NoError(t, err)

	_, err = run(t, "--server", url, "rm", id)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddRejectsBadStatus(t *testing.T) {
	url := startServer(t, api.NewAuth("", "", "s", false))
	_, err := run(t, "--server", url, "add", "x", "--status", "someday")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestLoginThenBoard(t *testing.T) {
	url := startServer(t, api.NewAuth("admin", "pw", "secret", false))

	_, err := run(t, "--server", url, "board")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	out, err := run(t, "--server", url, "login", "admin", "pw")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	out, err = run(t, "--server", url, "--token", token, "board")
	require.NoError(t, err)
	assert.Contains(t, out, "Backlog (0)")
	assert.Contains(t, out, "Done (0)")
}
