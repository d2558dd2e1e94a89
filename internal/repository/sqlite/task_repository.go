package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-keeper/internal/domain"
	"task-keeper/internal/repository"
)

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	start_date DATETIME NULL,
	end_date DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_id_user_id ON tasks(id, user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_user_id_created_at ON tasks(user_id, created_at);
`

const taskColumns = `id, user_id, title, description, status, start_date, end_date, created_at, updated_at`

// TaskRepository stores tasks in sqlite. All reads and writes of an existing
// task are keyed by the (id, user_id) pair.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO tasks (user_id, title, description, status, start_date, end_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.OwnerID,
		task.Title,
		task.Description,
		string(task.Status),
		nullTime(task.StartDate),
		nullTime(task.DueDate),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	task.ID = id
	return id, nil
}

func (r *TaskRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+taskColumns+`
FROM tasks
WHERE id = ? AND user_id = ?`,
		id,
		ownerID,
	)
	return scanTask(row)
}

func (r *TaskRepository) Update(ctx context.Context, ownerID, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	var updated *domain.Task
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var status any
		if patch.Status != nil {
			status = string(*patch.Status)
		}
		res, err := tx.ExecContext(ctx, `
UPDATE tasks
SET title = COALESCE(?, title),
	description = COALESCE(?, description),
	status = COALESCE(?, status),
	start_date = COALESCE(?, start_date),
	end_date = COALESCE(?, end_date),
	updated_at = ?
WHERE id = ? AND user_id = ?`,
			nullString(patch.Title),
			nullString(patch.Description),
			status,
			nullTime(patch.StartDate),
			nullTime(patch.DueDate),
			time.Now().UTC(),
			id,
			ownerID,
		)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `
SELECT `+taskColumns+`
FROM tasks
WHERE id = ? AND user_id = ?`,
			id,
			ownerID,
		)
		updated, err = scanTask(row)
		if err != nil {
			return err
		}
		// a patch carrying one date can still invert the stored pair
		if updated.StartDate != nil && updated.DueDate != nil && updated.DueDate.Before(*updated.StartDate) {
			return fmt.Errorf("%w: due date before start date", domain.ErrInvalidInput)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	var deleted *domain.Task
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
SELECT `+taskColumns+`
FROM tasks
WHERE id = ? AND user_id = ?`,
			id,
			ownerID,
		)
		task, err := scanTask(row)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		deleted = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *TaskRepository) List(ctx context.Context, ownerID int64, filter domain.TaskFilter) ([]domain.Task, error) {
	where := []string{"user_id = ?"}
	args := []any{ownerID}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		where = append(where, "start_date >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		where = append(where, "end_date <= ?")
		args = append(args, filter.To.UTC())
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		where = append(where, `(lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := fmt.Sprintf(`
SELECT %s
FROM tasks
WHERE %s
ORDER BY created_at DESC, id DESC`, taskColumns, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

func (r *TaskRepository) Count(ctx context.Context, ownerID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE user_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*domain.Task, error) {
	var (
		task      domain.Task
		status    string
		startDate sql.NullTime
		endDate   sql.NullTime
	)

	if err := scanner.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&status,
		&startDate,
		&endDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Status = domain.TaskStatus(status)
	if startDate.Valid {
		t := startDate.Time
		task.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		task.DueDate = &t
	}

	return &task, nil
}

func requireAffected(res sql.Result) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
