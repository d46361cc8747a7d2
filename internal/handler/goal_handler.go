package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"goalengine/internal/service"
	"goalengine/pkg/calendar"
	"goalengine/pkg/logger"
	"goalengine/pkg/model"
	"goalengine/pkg/recurrence"
)

// UserIDKey is where the auth middleware stores the caller's user id.
const UserIDKey = "user_id"

type GoalService interface {
	Create(ctx context.Context, userID int, g model.Goal) (*model.Goal, error)
	List(ctx context.Context, userID int) ([]model.Goal, error)
	Occurrences(ctx context.Context, userID int, goalID string, limit int) ([]time.Time, error)
}

type ProgressService interface {
	GoalProgress(ctx context.Context, userID int, goalID string, now time.Time) (*service.GoalWithProgress, error)
	Dashboard(ctx context.Context, userID int, now time.Time) (*service.Dashboard, error)
}

type GoalHandler struct {
	goals    GoalService
	progress ProgressService
	loc      *time.Location
	clock    func() time.Time
	logger   *zap.Logger
}

func NewGoalHandler(goals GoalService, progress ProgressService, loc *time.Location, logger *zap.Logger) *GoalHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &GoalHandler{goals: goals, progress: progress, loc: loc, clock: time.Now, logger: logger}
}

type createGoalRequest struct {
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	GoalType          model.GoalType     `json:"goal_type"`
	MetricType        model.MetricType   `json:"metric_type"`
	TargetValue       float64            `json:"target_value"`
	PeriodType        model.PeriodType   `json:"period_type"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	ActivityTitle     string             `json:"activity_title"`
	ActivityCategory  string             `json:"activity_category"`
	IsRecurring       bool               `json:"is_recurring"`
	RecurrencePattern recurrence.Pattern `json:"recurrence_pattern"`
	RecurrenceConfig  *recurrence.Config `json:"recurrence_config"`
}

func (r createGoalRequest) toGoal(loc *time.Location) (model.Goal, error) {
	start, err := calendar.ParseDate(r.StartDate, loc)
	if err != nil {
		return model.Goal{}, err
	}
	g := model.Goal{
		Title:             r.Title,
		Description:       r.Description,
		GoalType:          r.GoalType,
		MetricType:        r.MetricType,
		TargetValue:       r.TargetValue,
		PeriodType:        r.PeriodType,
		StartDate:         start,
		ActivityTitle:     r.ActivityTitle,
		ActivityCategory:  r.ActivityCategory,
		IsRecurring:       r.IsRecurring,
		RecurrencePattern: r.RecurrencePattern,
		RecurrenceConfig:  r.RecurrenceConfig,
	}
	if r.EndDate != "" {
		if g.EndDate, err = calendar.ParseDate(r.EndDate, loc); err != nil {
			return model.Goal{}, err
		}
	}
	return g, nil
}

func (h *GoalHandler) ListGoals(c *gin.Context) {
	userID := c.GetInt(UserIDKey)
	goals, err := h.goals.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "ListGoals", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID := c.GetInt(UserIDKey)

	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	g, err := req.toGoal(h.loc)
	if err != nil {
		h.fail(c, "CreateGoal", err)
		return
	}

	created, err := h.goals.Create(c.Request.Context(), userID, g)
	if err != nil {
		h.fail(c, "CreateGoal", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *GoalHandler) GoalProgress(c *gin.Context) {
	id, ok := goalID(c)
	if !ok {
		return
	}
	now, ok := h.now(c)
	if !ok {
		return
	}
	out, err := h.progress.GoalProgress(c.Request.Context(), c.GetInt(UserIDKey), id, now)
	if err != nil {
		h.fail(c, "GoalProgress", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *GoalHandler) Occurrences(c *gin.Context) {
	id, ok := goalID(c)
	if !ok {
		return
	}
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	dates, err := h.goals.Occurrences(c.Request.Context(), c.GetInt(UserIDKey), id, limit)
	if err != nil {
		h.fail(c, "Occurrences", err)
		return
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(calendar.DateLayout))
	}
	c.JSON(http.StatusOK, gin.H{"goal_id": id, "occurrences": out})
}

func (h *GoalHandler) Dashboard(c *gin.Context) {
	now, ok := h.now(c)
	if !ok {
		return
	}
	out, err := h.progress.Dashboard(c.Request.Context(), c.GetInt(UserIDKey), now)
	if err != nil {
		h.fail(c, "Dashboard", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// goalID rejects ids that cannot name a stored goal.
func goalID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return "", false
	}
	return id, true
}

// now returns the evaluation instant: ?now= when given, the clock otherwise.
func (h *GoalHandler) now(c *gin.Context) (time.Time, bool) {
	raw := c.Query("now")
	if raw == "" {
		return h.clock().In(h.loc), true
	}
	t, err := calendar.ParseDate(raw, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, false
	}
	return t, true
}

func (h *GoalHandler) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	log := logger.WithTrace(c.Request.Context(), h.logger)
	if status == http.StatusInternalServerError {
		log.Error(op+": failed", zap.Int("user_id", c.GetInt(UserIDKey)), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	log.Info(op+": rejected", zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidGoal),
		errors.Is(err, recurrence.ErrInvalidRecurrence),
		errors.Is(err, calendar.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
