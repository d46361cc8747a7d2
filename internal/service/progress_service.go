package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"goalengine/pkg/logger"
	"goalengine/pkg/metrics"
	"goalengine/pkg/model"
	"goalengine/pkg/progress"
	"goalengine/pkg/rollup"
)

const defaultDashboardWorkers = 8

// GoalWithProgress is a stored goal next to its derived fields.
type GoalWithProgress struct {
	Goal     model.Goal            `json:"goal"`
	Progress progress.GoalProgress `json:"progress"`
	OnPace   bool                  `json:"on_pace"`
}

type Dashboard struct {
	UserID      int                       `json:"user_id"`
	Now         time.Time                 `json:"now"`
	Goals       []GoalWithProgress        `json:"goals"`
	Current     rollup.PeriodProgress     `json:"current"`
	Historical  rollup.HistoricalProgress `json:"historical"`
	Comparisons []rollup.Comparison       `json:"comparisons"`
}

type ProgressService struct {
	goals   GoalStore
	logs    LogStore
	workers int
	logger  *zap.Logger
}

// NewProgressService creates the service. workers bounds the concurrent log
// loads of a dashboard; <= 0 means 8.
func NewProgressService(goals GoalStore, logs LogStore, workers int, logger *zap.Logger) *ProgressService {
	if workers <= 0 {
		workers = defaultDashboardWorkers
	}
	return &ProgressService{goals: goals, logs: logs, workers: workers, logger: logger}
}

// GoalProgress loads one goal with its logs and derives its progress at now.
func (s *ProgressService) GoalProgress(ctx context.Context, userID int, goalID string, now time.Time) (*GoalWithProgress, error) {
	g, err := s.goals.Get(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	logs, err := s.loadLogs(ctx, *g)
	if err != nil {
		return nil, err
	}
	p := progress.Compute(*g, logs, now)
	return &GoalWithProgress{Goal: *g, Progress: p, OnPace: p.OnPace()}, nil
}

// Dashboard derives progress for every active goal of the user and rolls it
// up into the current and previous calendar windows.
func (s *ProgressService) Dashboard(ctx context.Context, userID int, now time.Time) (*Dashboard, error) {
	start := time.Now()
	log := logger.WithTrace(ctx, s.logger)

	goals, err := s.goals.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	logsByGoal := make([][]model.Log, len(goals))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for i, g := range goals {
		eg.Go(func() error {
			logs, err := s.loadLogs(egCtx, g)
			if err != nil {
				return err
			}
			logsByGoal[i] = logs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Error("Failed to load dashboard logs", zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}

	out := &Dashboard{
		UserID: userID,
		Now:    now,
		Goals:  make([]GoalWithProgress, 0, len(goals)),
	}
	derived := make([]progress.GoalProgress, 0, len(goals))
	for i, g := range goals {
		p := progress.Compute(g, logsByGoal[i], now)
		derived = append(derived, p)
		out.Goals = append(out.Goals, GoalWithProgress{Goal: g, Progress: p, OnPace: p.OnPace()})
	}

	out.Current = rollup.ComputePeriodProgress(derived, now)
	out.Historical = rollup.ComputeHistoricalProgress(derived, now)
	out.Comparisons = rollup.Compare(out.Current, out.Historical)

	skipped := len(derived) - out.Current.Daily.Goals
	metrics.RecordDashboardCompute(time.Since(start), skipped)
	log.Debug("Dashboard computed",
		zap.Int("user_id", userID),
		zap.Int("goals", len(goals)),
		zap.Int("skipped", skipped),
		zap.Duration("took", time.Since(start)),
	)
	return out, nil
}

func (s *ProgressService) loadLogs(ctx context.Context, g model.Goal) ([]model.Log, error) {
	from, to := g.Window()
	logs, err := s.logs.ListForGoal(ctx, g.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("logs for goal %s: %w", g.ID, err)
	}
	return logs, nil
}
