package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskvault/taskvault/internal/model"
)

// ErrTodoNotFound indicates no todo row matched the query.
var ErrTodoNotFound = errors.New("todo not found")

const todoColumns = "id, title, description, priority, completed, owner_id, created_at, updated_at"

// CreateTodo inserts a new todo and fills in its store-assigned ID.
func (r *Repository) CreateTodo(ctx context.Context, todo *model.Todo) error {
	query := `
		INSERT INTO todos (title, description, priority, completed, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Completed,
		todo.OwnerID,
		todo.CreatedAt,
		todo.UpdatedAt,
	).Scan(&todo.ID)

	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// GetTodoByID retrieves a todo by its ID.
func (r *Repository) GetTodoByID(ctx context.Context, id int64) (*model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`

	return scanTodo(r.pool.QueryRow(ctx, query, id))
}

// ListTodos retrieves every todo in the store, oldest first.
func (r *Repository) ListTodos(ctx context.Context) ([]*model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	return collectTodos(rows)
}

// ListTodosByOwner retrieves every todo owned by the given user, oldest first.
func (r *Repository) ListTodosByOwner(ctx context.Context, ownerID int64) ([]*model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos by owner: %w", err)
	}
	defer rows.Close()

	return collectTodos(rows)
}

// UpdateTodo replaces the four mutable fields of a todo.
// Returns the updated row, or ErrTodoNotFound if the ID does not exist.
func (r *Repository) UpdateTodo(ctx context.Context, todo *model.Todo) (*model.Todo, error) {
	query := `
		UPDATE todos
		SET title = $2, description = $3, priority = $4, completed = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + todoColumns

	return scanTodo(r.pool.QueryRow(ctx, query,
		todo.ID,
		todo.Title,
		todo.Description,
		todo.Priority,
		todo.Completed,
		todo.UpdatedAt,
	))
}

// DeleteTodo removes a todo and returns the deleted row.
func (r *Repository) DeleteTodo(ctx context.Context, id int64) (*model.Todo, error) {
	query := `DELETE FROM todos WHERE id = $1 RETURNING ` + todoColumns

	return scanTodo(r.pool.QueryRow(ctx, query, id))
}

func scanTodo(row pgx.Row) (*model.Todo, error) {
	var todo model.Todo
	err := row.Scan(
		&todo.ID,
		&todo.Title,
		&todo.Description,
		&todo.Priority,
		&todo.Completed,
		&todo.OwnerID,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to scan todo: %w", err)
	}

	return &todo, nil
}

func collectTodos(rows pgx.Rows) ([]*model.Todo, error) {
	todos := make([]*model.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}

	return todos, nil
}
