// Package sqlite provides an agent.Hooks implementation that persists one row
// per lifecycle point of every run into a SQLite database, for audit trails
// and offline inspection of agent behavior.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/agentcore/agent"
	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// Event is one recorded lifecycle point.
type Event struct {
	ID        int64           `json:"id"`
	RunID     string          `json:"run_id"`
	Agent     string          `json:"agent"`
	TaskID    string          `json:"task_id"`
	Point     agent.HookPoint `json:"point"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Recorder implements agent.Hooks on top of SQLite.
type Recorder struct {
	db *sql.DB
}

// Verify interface compliance at compile time.
var _ agent.Hooks = (*Recorder)(nil)

// New opens (or creates) a SQLite database at the given path and runs migrations.
func New(dbPath string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	r := &Recorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// Close closes the underlying database connection.
func (r *Recorder) Close() error {
	return r.db.Close()
}

func (r *Recorder) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS run_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		agent TEXT NOT NULL DEFAULT '',
		task_id TEXT NOT NULL DEFAULT '',
		point TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '{}',
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id, id);
	`
	_, err := r.db.Exec(schema)
	return err
}

// record inserts one event. The run context may already be cancelled (a
// stopped stream), so its values are kept but its cancellation is not.
func (r *Recorder) record(rc *agent.Context, point agent.HookPoint, detail any, errText string) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("encode %s detail: %w", point, err)
	}

	_, err = r.db.ExecContext(context.WithoutCancel(rc),
		`INSERT INTO run_events (run_id, agent, task_id, point, detail, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rc.RunID(), rc.Agent().Name(), rc.Task().ID, string(point), string(raw), errText, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", point, err)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// BeforeTask implements agent.Hooks.
func (r *Recorder) BeforeTask(rc *agent.Context, task core.Task) error {
	return r.record(rc, agent.HookBeforeTask, map[string]any{
		"prompt":   task.Prompt,
		"metadata": task.Metadata,
		"strategy": rc.Agent().Executor().Strategy(),
		"stream":   rc.Streaming(),
	}, "")
}

// BeforeModel implements agent.Hooks.
func (r *Recorder) BeforeModel(rc *agent.Context, req model.Request) error {
	return r.record(rc, agent.HookBeforeModel, map[string]any{
		"iteration": rc.Limiter().Count(),
		"turns":     len(req.Turns),
		"tools":     len(req.Tools),
	}, "")
}

// AfterModel implements agent.Hooks.
func (r *Recorder) AfterModel(rc *agent.Context, resp model.Response, err error) error {
	return r.record(rc, agent.HookAfterModel, map[string]any{
		"text":          resp.Text,
		"tool_calls":    resp.ToolCalls,
		"finish_reason": resp.FinishReason,
		"usage":         resp.Usage,
	}, errString(err))
}

// BeforeTool implements agent.Hooks.
func (r *Recorder) BeforeTool(rc *agent.Context, call core.FunctionCall) error {
	return r.record(rc, agent.HookBeforeTool, call, "")
}

// AfterTool implements agent.Hooks.
func (r *Recorder) AfterTool(rc *agent.Context, call core.FunctionCall, result core.ToolResult) error {
	return r.record(rc, agent.HookAfterTool, map[string]any{
		"call_id": call.ID,
		"name":    call.Name,
		"result":  result.Result,
	}, result.Error)
}

// AfterTask implements agent.Hooks.
func (r *Recorder) AfterTask(rc *agent.Context, out core.Output) error {
	return r.record(rc, agent.HookAfterTask, map[string]any{
		"response":   out.Response,
		"iterations": out.Iterations,
		"structured": out.Structured,
	}, "")
}

// OnTaskError implements agent.Hooks.
func (r *Recorder) OnTaskError(rc *agent.Context, err error) error {
	return r.record(rc, agent.HookTaskError, map[string]any{
		"kind": core.KindOf(err),
	}, errString(err))
}

// Events returns the recorded events of a run in insertion order.
func (r *Recorder) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, run_id, agent, task_id, point, detail, error, created_at
		 FROM run_events WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev     Event
			point  string
			detail string
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Agent, &ev.TaskID, &point, &detail, &ev.Error, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Point = agent.HookPoint(point)
		ev.Detail = json.RawMessage(detail)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RunIDs returns the ids of all recorded runs of an agent, oldest first.
func (r *Recorder) RunIDs(ctx context.Context, agentName string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id FROM run_events WHERE agent = ? GROUP BY run_id ORDER BY MIN(id)`, agentName,
	)
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
	return ids, rows.Err()
}
