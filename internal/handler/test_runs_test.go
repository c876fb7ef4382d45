package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/haatos/simple-qa/internal/service"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/testutil"
	"github.com/haatos/simple-qa/internal/util"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestRunEcho(s *testutil.MockTestRunService) *echo.Echo {
	e, g := newTestEcho()
	SetupTestRunRoutes(g, NewTestRunHandler(s))
	return e
}

func TestTestRunHandler_PostTestRun(t *testing.T) {
	t.Run("success - run accepted", func(t *testing.T) {
		// arrange
		run := &store.TestRun{
			TestRunID:        42,
			TestRunProjectID: 7,
			Status:           store.StatusPending,
			Branch:           "develop",
			RepositoryURL:    util.AsPtr("https://example.com/repo.git"),
			CreatedOn:        time.Now().UTC(),
		}
		s := new(testutil.MockTestRunService)
		s.On(
			"StartTestRun", mock.Anything, int64(7),
			util.AsPtr(int64(3)), util.AsPtr("https://example.com/repo.git"), "develop",
		).Return(run, nil)
		e := newTestRunEcho(s)

		// act
		rec := doRequest(
			e,
			http.MethodPost, "/api/projects/7/runs",
			`{"user_id":3,"repository_url":" https://example.com/repo.git ","branch":"develop"}`,
		)

		// assert
		assert.Equal(t, http.StatusAccepted, rec.Code)
		var got store.TestRun
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, int64(42), got.TestRunID)
		assert.Equal(t, store.StatusPending, got.Status)
		s.AssertExpectations(t)
	})
	t.Run("success - demo run without body", func(t *testing.T) {
		// arrange
		s := new(testutil.MockTestRunService)
		s.On("StartTestRun", mock.Anything, int64(7), (*int64)(nil), (*string)(nil), "").
			Return(&store.TestRun{TestRunID: 1, Status: store.StatusPending}, nil)
		e := newTestRunEcho(s)

		// act
		rec := doRequest(e, http.MethodPost, "/api/projects/7/runs", "")

		// assert
		assert.Equal(t, http.StatusAccepted, rec.Code)
		s.AssertExpectations(t)
	})
	t.Run("failure - queue full", func(t *testing.T) {
		// arrange
		s := new(testutil.MockTestRunService)
		s.On("StartTestRun", mock.Anything, int64(7), (*int64)(nil), (*string)(nil), "").
			Return(nil, service.NewErrRunQueueFull())
		e := newTestRunEcho(s)

		// act
		rec := doRequest(e, http.MethodPost, "/api/projects/7/runs", "")

		// assert
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "test run queue is full")
	})
	t.Run("failure - unknown project", func(t *testing.T) {
		// arrange
		s := new(testutil.MockTestRunService)
		s.On("StartTestRun", mock.Anything, int64(99), (*int64)(nil), (*string)(nil), "").
			Return(nil, &pgconn.PgError{Code: pgForeignKeyViolation})
		e := newTestRunEcho(s)

		// act
		rec := doRequest(e, http.MethodPost, "/api/projects/99/runs", "")

		// assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("failure - project does not exist", func(t *testing.T) {
		// arrange
		s := new(testutil.MockTestRunService)
		s.On("StartTestRun", mock.Anything, int64(98), (*int64)(nil), (*string)(nil), "").
			Return(nil, fmt.Errorf("err reading project 98: %w", sql.ErrNoRows))
		e := newTestRunEcho(s)

		// act
		rec := doRequest(e, http.MethodPost, "/api/projects/98/runs", "")

		// assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "project not found")
	})
	t.Run("failure - invalid project id", func(t *testing.T) {
		// arrange
		s := new(testutil.MockTestRunService)
		e := newTestRunEcho(s)

		// act
		rec := doRequest(e, http.MethodPost, "/api/projects/abc/runs", "")

		// assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.AssertNotCalled(t, "StartTestRun")
	})
}

func TestTestRunHandler_GetTestRun(t *testing.T) {
	t.Run("success - run found", func(t *testing.T) {
		// arrange
		s := new(testutil.MockTestRunService)
		s.On("GetTestRunByID", mock.Anything, int64(42)).
			Return(&store.TestRun{TestRunID: 42, Status: store.StatusPassed}, nil)
		e := newTestRunEcho(s)

		// act
		rec := doRequest(e, http.MethodGet, "/api/runs/42", "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"passed"`)
	})
	t.Run("failure - run not found", func(t *testing.T) {
		// arrange
		s := new(testutil.MockTestRunService)
		s.On("GetTestRunByID", mock.Anything, int64(42)).Return(nil, sql.ErrNoRows)
		e := newTestRunEcho(s)

		// act
		rec := doRequest(e, http.MethodGet, "/api/runs/42", "")

		// assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"test run not found"}`, rec.Body.String())
	})
	t.Run("failure - store error", func(t *testing.T) {
		// arrange
		s := new(testutil.MockTestRunService)
		s.On("GetTestRunByID", mock.Anything, int64(42)).Return(nil, errors.New("boom"))
		e := newTestRunEcho(s)

		// act
		rec := doRequest(e, http.MethodGet, "/api/runs/42", "")

		// assert
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})
}

func TestTestRunHandler_GetProjectTestRuns(t *testing.T) {
	t.Run("success - limit passed through", func(t *testing.T) {
		// arrange
		s := new(testutil.MockTestRunService)
		s.On("ListProjectTestRuns", mock.Anything, int64(7), int64(5)).
			Return([]store.TestRun{{TestRunID: 2}, {TestRunID: 1}}, nil)
		e := newTestRunEcho(s)

		// act
		rec := doRequest(e, http.MethodGet, "/api/projects/7/runs?limit=5", "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		var got []store.TestRun
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})
}
