package postgres

import (
	"context"

	"github.com/geocoder89/todohub/internal/domain/todo"
)

const todoColumns = `id, title, description, priority, completed, owner_id, created_at, updated_at`

type TodosRepo struct {
	db  DBTX
	obs DBObserver
}

func NewTodosRepo(db DBTX, obs DBObserver) *TodosRepo {
	return &TodosRepo{db: db, obs: obs}
}

func scanTodo(row scanner) (todo.Todo, error) {
	var t todo.Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Completed, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TodosRepo) Create(ctx context.Context, t todo.Todo) (todo.Todo, error) {
	err := observe(r.obs, "todos.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO todos (`+todoColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			t.ID, t.Title, t.Description, t.Priority, t.Completed, t.OwnerID, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return todo.Todo{}, err
	}
	return t, nil
}

func (r *TodosRepo) GetByID(ctx context.Context, id string) (todo.Todo, error) {
	var (
		t        todo.Todo
		notFound bool
	)

	err := observe(r.obs, "todos.get_by_id", func() error {
		var err error
		t, err = scanTodo(r.db.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id))
		if isNoRow(err) {
			notFound = true
			return nil
		}
		return err
	})

	if err != nil {
		return todo.Todo{}, err
	}
	if notFound {
		return todo.Todo{}, todo.ErrNotFound
	}
	return t, nil
}

func (r *TodosRepo) ListByOwner(ctx context.Context, ownerID string) ([]todo.Todo, error) {
	out := make([]todo.Todo, 0)

	err := observe(r.obs, "todos.list_by_owner", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT `+todoColumns+` FROM todos WHERE owner_id = $1 ORDER BY created_at ASC, id ASC`,
			ownerID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTodo(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TodosRepo) Update(ctx context.Context, id string, req todo.UpdateTodoRequest) (todo.Todo, error) {
	var (
		t        todo.Todo
		notFound bool
	)

	err := observe(r.obs, "todos.update", func() error {
		var err error
		t, err = scanTodo(r.db.QueryRow(ctx,
			`UPDATE todos
				SET title = $2,
					description = $3,
					priority = $4,
					completed = $5,
					updated_at = NOW()
			WHERE id = $1
			RETURNING `+todoColumns,
			id, req.Title, req.Description, req.Priority, req.Completed,
		))
		if isNoRow(err) {
			notFound = true
			return nil
		}
		return err
	})

	if err != nil {
		return todo.Todo{}, err
	}
	if notFound {
		return todo.Todo{}, todo.ErrNotFound
	}
	return t, nil
}

func (r *TodosRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := observe(r.obs, "todos.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
		if isNoRow(err) {
			return nil
		}
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}
	if affected == 0 {
		return todo.ErrNotFound
	}
	return nil
}
