package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	m := New()

	m.TaskCreated()
	m.TaskCreated()
	m.TaskCompleted()
	m.AssistantRequest("chat")
	m.AssistantRequest("chat")
	m.AssistantRequest("daily_plan")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tasksCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksCompleted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.assistantRequests.WithLabelValues("chat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assistantRequests.WithLabelValues("daily_plan")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/tasks/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/abc", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/tasks/:id", "204")))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "taskmate_tasks_created_total"))
}
