package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"echelon-backend/internal/models"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

const taskColumns = `id, user_id, title, description, status, priority, due_date, created_at`

// taskOrder maps a sort key to its ORDER BY clause. Unknown keys sort by due date.
func taskOrder(sortBy string) string {
	switch sortBy {
	case "priority":
		return "CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at DESC"
	case "created":
		return "created_at DESC"
	default:
		return "due_date ASC NULLS LAST, created_at DESC"
	}
}

// List returns the owner's tasks. filter "all" hides archived tasks;
// "pending" and "completed" select that status only.
func (r *TaskRepo) List(ctx context.Context, ownerID uuid.UUID, filter, sortBy string) ([]*models.Task, error) {
	args := []interface{}{ownerID}
	where := "WHERE user_id = $1"
	switch filter {
	case models.TaskStatusPending, models.TaskStatusCompleted:
		where += " AND status = $2"
		args = append(args, filter)
	default:
		where += " AND status <> 'archived'"
	}

	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks `+where+` ORDER BY `+taskOrder(sortBy), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Counts(ctx context.Context, ownerID uuid.UUID) (completed, pending int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM tasks WHERE user_id = $1`, ownerID,
	).Scan(&completed, &pending)
	return completed, pending, err
}

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	t.ID = uuid.New()
	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO tasks (id, user_id, title, description, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		t.ID, t.UserID, t.Title, t.Description, t.Status, t.Priority, t.DueDate,
	).Scan(&t.CreatedAt)
}

func (r *TaskRepo) Update(ctx context.Context, t *models.Task) error {
	row := r.pool.QueryRow(ctx,
		`UPDATE tasks SET title = $1, description = $2, priority = $3, due_date = $4
		WHERE id = $5 AND user_id = $6 RETURNING `+taskColumns,
		t.Title, t.Description, t.Priority, t.DueDate, t.ID, t.UserID,
	)
	updated, err := scanTask(row)
	if err != nil {
		return err
	}
	*t = *updated
	return nil
}

// Toggle flips a task between pending and completed.
func (r *TaskRepo) Toggle(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tasks SET status = CASE WHEN status = 'completed' THEN 'pending' ELSE 'completed' END
		WHERE id = $1 AND user_id = $2 RETURNING `+taskColumns,
		id, ownerID,
	)
	return scanTask(row)
}

func (r *TaskRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	t := &models.Task{}
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}
