package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskvault/taskvault/internal/metrics"
	"github.com/taskvault/taskvault/internal/model"
	"github.com/taskvault/taskvault/internal/repository"
)

// Todo service errors.
var (
	ErrTodoNotFound = errors.New("todo not found")
	// ErrUnauthorized indicates the caller has no resolved identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// TodoStore is the task store interface used by TodoService.
type TodoStore interface {
	CreateTodo(ctx context.Context, todo *model.Todo) error
	GetTodoByID(ctx context.Context, id int64) (*model.Todo, error)
	ListTodos(ctx context.Context) ([]*model.Todo, error)
	ListTodosByOwner(ctx context.Context, ownerID int64) ([]*model.Todo, error)
	UpdateTodo(ctx context.Context, todo *model.Todo) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id int64) (*model.Todo, error)
}

// TodoService handles todo business logic. Every operation is scoped to the
// caller's identity; admins see past the ownership fence.
type TodoService struct {
	todos   TodoStore
	metrics metrics.Recorder
}

// NewTodoService creates a new TodoService.
func NewTodoService(todos TodoStore, recorder metrics.Recorder) *TodoService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TodoService{todos: todos, metrics: recorder}
}

// TodoInput defines the mutable fields of a todo.
type TodoInput struct {
	Title       string
	Description string
	Priority    int
	Completed   bool
}

// Create persists a new todo owned by the caller.
func (s *TodoService) Create(ctx context.Context, identity *model.AuthContext, input TodoInput) (*model.Todo, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	if err := validateTodoInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	todo := &model.Todo{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Completed:   input.Completed,
		OwnerID:     identity.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.todos.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.metrics.IncTodoCreated()
	return todo, nil
}

// List returns the caller's todos.
func (s *TodoService) List(ctx context.Context, identity *model.AuthContext) ([]*model.Todo, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	return s.todos.ListTodosByOwner(ctx, identity.UserID)
}

// ListAll returns every todo in the store, unscoped. Admin only.
func (s *TodoService) ListAll(ctx context.Context) ([]*model.Todo, error) {
	return s.todos.ListTodos(ctx)
}

// Get returns a todo by ID. A todo the caller does not own is reported as
// not found so its existence is not leaked.
func (s *TodoService) Get(ctx context.Context, identity *model.AuthContext, id int64) (*model.Todo, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}

	todo, err := s.getOwned(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	return todo, nil
}

// Update fully replaces the mutable fields of a todo owned by the caller.
// Unspecified fields are not preserved from the old record.
func (s *TodoService) Update(ctx context.Context, identity *model.AuthContext, id int64, input TodoInput) (*model.Todo, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	if err := validateTodoInput(input); err != nil {
		return nil, err
	}

	if _, err := s.getOwned(ctx, identity, id); err != nil {
		return nil, err
	}

	updated, err := s.todos.UpdateTodo(ctx, &model.Todo{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Completed:   input.Completed,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	s.metrics.IncTodoUpdated()
	return updated, nil
}

// Delete removes a todo owned by the caller and returns the deleted record.
func (s *TodoService) Delete(ctx context.Context, identity *model.AuthContext, id int64) (*model.Todo, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}

	if _, err := s.getOwned(ctx, identity, id); err != nil {
		return nil, err
	}

	deleted, err := s.todos.DeleteTodo(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to delete todo: %w", err)
	}

	s.metrics.IncTodoDeleted()
	return deleted, nil
}

// getOwned fetches a todo and enforces the ownership fence.
// Admins may reach any todo.
func (s *TodoService) getOwned(ctx context.Context, identity *model.AuthContext, id int64) (*model.Todo, error) {
	todo, err := s.todos.GetTodoByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	if todo.OwnerID != identity.UserID && !identity.IsAdmin() {
		return nil, ErrTodoNotFound
	}

	return todo, nil
}

func validateTodoInput(input TodoInput) error {
	if len(input.Title) < minTitleLength {
		return invalidField("title", "must be at least %d characters", minTitleLength)
	}
	if len(input.Description) < minDescriptionLength || len(input.Description) > maxDescriptionLength {
		return invalidField("description", "must be %d-%d characters", minDescriptionLength, maxDescriptionLength)
	}
	if input.Priority < minPriority || input.Priority > maxPriority {
		return invalidField("priority", "must be between %d and %d", minPriority, maxPriority)
	}
	return nil
}
