package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/haatos/simple-qa/internal/service"
	"github.com/labstack/echo/v4"
)

type TestRunHandler struct {
	testRunService service.TestRunServicer
}

func NewTestRunHandler(testRunService service.TestRunServicer) *TestRunHandler {
	return &TestRunHandler{testRunService}
}

func SetupTestRunRoutes(g *echo.Group, h *TestRunHandler) {
	g.POST("/projects/:project_id/runs", h.PostTestRun)
	g.GET("/projects/:project_id/runs", h.GetProjectTestRuns)
	g.GET("/runs/:run_id", h.GetTestRun)
}

// PostTestRun queues a run for the project. The run executes in the
// background so the response only carries its pending state.
func (h *TestRunHandler) PostTestRun(c echo.Context) error {
	tp := new(TestRunParams)
	if err := c.Bind(tp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid test run data")
	}
	if tp.RepositoryURL != nil {
		trimmed := strings.TrimSpace(*tp.RepositoryURL)
		tp.RepositoryURL = &trimmed
	}

	run, err := h.testRunService.StartTestRun(
		c.Request().Context(),
		tp.ProjectID,
		tp.UserID,
		tp.RepositoryURL,
		strings.TrimSpace(tp.Branch),
	)
	if err != nil {
		var queueFull *service.ErrRunQueueFull
		switch {
		case errors.As(err, &queueFull):
			return newError(err, http.StatusServiceUnavailable, "test run queue is full")
		case errors.Is(err, sql.ErrNoRows):
			return newError(err, http.StatusNotFound, "project not found")
		case isForeignKeyConstraintError(err):
			return newError(err, http.StatusNotFound, "project or user not found")
		default:
			return newError(err, http.StatusInternalServerError, "unable to start test run")
		}
	}

	return c.JSON(http.StatusAccepted, run)
}

func (h *TestRunHandler) GetTestRun(c echo.Context) error {
	tp := new(TestRunParams)
	if err := c.Bind(tp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid test run id")
	}

	run, err := h.testRunService.GetTestRunByID(c.Request().Context(), tp.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "test run not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read test run")
	}
	return c.JSON(http.StatusOK, run)
}

func (h *TestRunHandler) GetProjectTestRuns(c echo.Context) error {
	lp := new(ListTestRunsParams)
	if err := c.Bind(lp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project id")
	}

	runs, err := h.testRunService.ListProjectTestRuns(c.Request().Context(), lp.ProjectID, lp.Limit)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to list test runs")
	}
	return c.JSON(http.StatusOK, runs)
}
