// Package scheduler polls for tasks whose scheduledFor time has arrived and
// hands them to the processor, giving create_task's scheduledFor field
// (spec.md §4.6) an actual effect — the core loop itself never looks at
// the clock.
package scheduler

import (
	"context"
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alexsharp-ai/bytebot/internal/logging"
)

// TaskStarter is the minimal surface the scheduler needs from the processor.
type TaskStarter interface {
	ProcessTask(taskID string)
}

// DueTaskFinder returns task IDs whose scheduledFor has arrived and are
// still PENDING.
type DueTaskFinder interface {
	FindDueTaskIDs(ctx context.Context, now time.Time) ([]string, error)
}

// Scheduler runs a cron job that promotes due tasks to RUNNING and starts them.
type Scheduler struct {
	cron   *cron.Cron
	finder DueTaskFinder
	starts TaskStarter
}

// New creates a Scheduler; polling begins with Start.
func New(finder DueTaskFinder, starter TaskStarter) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		finder: finder,
		starts: starter,
	}
}

// Start schedules the polling job and begins running it in the background.
// spec is a cron expression; an empty spec means "* * * * *" (every minute).
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		spec = "* * * * *"
	}
	_, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron scheduler, blocking until the running job (if any) completes.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids, err := s.finder.FindDueTaskIDs(ctx, time.Now())
	if err != nil {
		logging.Warnf("[scheduler] find due tasks: %v", err)
		return
	}
	for _, id := range ids {
		s.starts.ProcessTask(id)
	}
}

// SQLFinder implements DueTaskFinder over a raw *sql.DB, promoting due rows
// to RUNNING atomically so two scheduler ticks never both start the same task.
type SQLFinder struct {
	DB *sql.DB
}

func (f *SQLFinder) FindDueTaskIDs(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := f.DB.QueryContext(ctx, `
		SELECT id FROM tasks
		WHERE status = 'PENDING' AND scheduled_for IS NOT NULL AND scheduled_for <= ?`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var promoted []string
	for _, id := range ids {
		res, err := f.DB.ExecContext(ctx, `UPDATE tasks SET status = 'RUNNING' WHERE id = ? AND status = 'PENDING'`, id)
		if err != nil {
			return nil, err
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			promoted = append(promoted, id)
		}
	}
	return promoted, nil
}
