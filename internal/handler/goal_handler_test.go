package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goalengine/internal/service"
	"goalengine/pkg/model"
)

const goalID1 = "6f1c2a9e-3b7d-4c0e-9a51-2d8e4f7b6c10"

type mockGoalService struct{ mock.Mock }

func (m *mockGoalService) Create(ctx context.Context, userID int, g model.Goal) (*model.Goal, error) {
	args := m.Called(ctx, userID, g)
	out, _ := args.Get(0).(*model.Goal)
	return out, args.Error(1)
}

func (m *mockGoalService) List(ctx context.Context, userID int) ([]model.Goal, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]model.Goal)
	return out, args.Error(1)
}

func (m *mockGoalService) Occurrences(ctx context.Context, userID int, goalID string, limit int) ([]time.Time, error) {
	args := m.Called(ctx, userID, goalID, limit)
	out, _ := args.Get(0).([]time.Time)
	return out, args.Error(1)
}

type mockProgressService struct{ mock.Mock }

func (m *mockProgressService) GoalProgress(ctx context.Context, userID int, goalID string, now time.Time) (*service.GoalWithProgress, error) {
	args := m.Called(ctx, userID, goalID, now)
	out, _ := args.Get(0).(*service.GoalWithProgress)
	return out, args.Error(1)
}

func (m *mockProgressService) Dashboard(ctx context.Context, userID int, now time.Time) (*service.Dashboard, error) {
	args := m.Called(ctx, userID, now)
	out, _ := args.Get(0).(*service.Dashboard)
	return out, args.Error(1)
}

func setup(t *testing.T) (*gin.Engine, *mockGoalService, *mockProgressService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	goals := &mockGoalService{}
	prog := &mockProgressService{}
	h := NewGoalHandler(goals, prog, time.UTC, zap.NewNop())
	h.clock = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(UserIDKey, 7)
		c.Next()
	})
	r.GET("/goals", h.ListGoals)
	r.POST("/goals", h.CreateGoal)
	r.GET("/goals/:id/progress", h.GoalProgress)
	r.GET("/goals/:id/occurrences", h.Occurrences)
	r.GET("/dashboard", h.Dashboard)
	return r, goals, prog
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateGoal(t *testing.T) {
	r, goals, _ := setup(t)

	goals.On("Create", mock.Anything, 7, mock.MatchedBy(func(g model.Goal) bool {
		return g.Title == "Read" &&
			g.StartDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			g.EndDate.IsZero()
	})).Return(&model.Goal{ID: goalID1, Title: "Read"}, nil).Once()

	w := do(r, http.MethodPost, "/goals", `{"title":"Read","goal_type":"achievement","metric_type":"count","target_value":12,"period_type":"month","start_date":"2024-03-01"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	var got model.Goal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, goalID1, got.ID)
	goals.AssertExpectations(t)
}

func TestCreateGoalRejects(t *testing.T) {
	r, goals, _ := setup(t)

	w := do(r, http.MethodPost, "/goals", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/goals", `{"title":"x","start_date":"03/01/2024"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	goals.On("Create", mock.Anything, 7, mock.Anything).
		Return(nil, fmt.Errorf("%w: target must be positive", model.ErrInvalidGoal)).Once()
	w = do(r, http.MethodPost, "/goals", `{"title":"x","start_date":"2024-03-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "target must be positive")
}

func TestListGoalsHidesInternalErrors(t *testing.T) {
	r, goals, _ := setup(t)
	goals.On("List", mock.Anything, 7).Return(nil, fmt.Errorf("pool exhausted")).Once()

	w := do(r, http.MethodGet, "/goals", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pool exhausted")
}

func TestGoalProgress(t *testing.T) {
	r, _, prog := setup(t)

	asOf := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	prog.On("GoalProgress", mock.Anything, 7, goalID1, asOf).
		Return(&service.GoalWithProgress{Goal: model.Goal{ID: goalID1}, OnPace: true}, nil).Once()
	w := do(r, http.MethodGet, "/goals/"+goalID1+"/progress?now=2024-03-05", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"on_pace":true`)

	prog.On("GoalProgress", mock.Anything, 7, goalID1, time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)).
		Return(nil, fmt.Errorf("get: %w", model.ErrNotFound)).Once()
	w = do(r, http.MethodGet, "/goals/"+goalID1+"/progress", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/goals/"+goalID1+"/progress?now=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/goals/not-a-uuid/progress", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	prog.AssertExpectations(t)
}

func TestOccurrences(t *testing.T) {
	r, goals, _ := setup(t)

	goals.On("Occurrences", mock.Anything, 7, goalID1, 10).Return([]time.Time{
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}, nil).Once()
	w := do(r, http.MethodGet, "/goals/"+goalID1+"/occurrences", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		GoalID      string   `json:"goal_id"`
		Occurrences []string `json:"occurrences"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, goalID1, body.GoalID)
	assert.Equal(t, []string{"2024-04-01", "2024-05-01"}, body.Occurrences)

	goals.On("Occurrences", mock.Anything, 7, goalID1, 3).Return([]time.Time{}, nil).Once()
	w = do(r, http.MethodGet, "/goals/"+goalID1+"/occurrences?limit=3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"occurrences":[]`)

	w = do(r, http.MethodGet, "/goals/"+goalID1+"/occurrences?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	goals.AssertExpectations(t)
}

func TestDashboard(t *testing.T) {
	r, _, prog := setup(t)

	asOf := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	prog.On("Dashboard", mock.Anything, 7, asOf).Return(&service.Dashboard{UserID: 7, Now: asOf}, nil).Once()
	w := do(r, http.MethodGet, "/dashboard?now=2024-03-10", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	prog.AssertExpectations(t)
}
