package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhub/taskhub/internal/domain/task"
	"github.com/taskhub/taskhub/internal/observability"
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) Create(ctx context.Context, req task.CreateTaskRequest) (task.Task, error) {
	t := task.NewFromCreateRequest(req)

	err := r.observe("tasks.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO tasks (id, title, description, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			t.ID, t.Title, t.Description, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

// List returns one page of tasks in insertion order plus the total row count.
// The page and the count are two independent queries with no transactional
// consistency between them: a concurrent insert or delete can make the total
// disagree with the page by the time both are back.
func (r *TasksRepo) List(ctx context.Context, filter task.ListTasksFilter) ([]task.Task, int, error) {
	out := make([]task.Task, 0, filter.Limit)

	err := r.observe("tasks.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, title, description, created_at, updated_at
			 FROM tasks
			 ORDER BY created_at ASC, id ASC
			 LIMIT $1 OFFSET $2`,
			filter.Limit, filter.Offset,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var t task.Task

			err = rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt)

			if err != nil {
				return err
			}

			out = append(out, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	total := 0

	err = r.observe("tasks.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&total)
	})

	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, title, description, created_at, updated_at
			 FROM tasks
			 WHERE id = $1`,
			id,
		).Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

// Replace fully overwrites a task's mutable fields.
func (r *TasksRepo) Replace(ctx context.Context, id string, req task.ReplaceTaskRequest) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.replace", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE tasks
				SET title = $2,
						description = $3,
						updated_at = NOW()
			 WHERE id = $1
			 RETURNING id, title, description, created_at, updated_at`,
			id, req.Title, req.Description,
		).Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

// Update applies a partial patch: nil fields keep their stored value.
func (r *TasksRepo) Update(ctx context.Context, id string, patch task.PatchTaskRequest) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE tasks
				SET title = COALESCE($2, title),
						description = COALESCE($3, description),
						updated_at = NOW()
			 WHERE id = $1
			 RETURNING id, title, description, created_at, updated_at`,
			id, patch.Title, patch.Description,
		).Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	var tag int64

	err := r.observe("tasks.delete", func() error {
		res, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)

		if err != nil {
			return err
		}

		tag = res.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	// nothing deleted means the id never existed
	if tag == 0 {
		return task.ErrNotFound
	}

	return nil
}
