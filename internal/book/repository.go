package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no book matches the given id.
var ErrNotFound = errors.New("book: not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, author, year, created_at, updated_at
		FROM books
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := make([]Book, 0)
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}

	return books, nil
}

func (r *Repository) Create(ctx context.Context, input BookInput) (Book, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Book{}, fmt.Errorf("generate book id: %w", err)
	}

	now := time.Now().UTC()
	b := Book{
		ID:        id.String(),
		Title:     input.Title,
		Author:    input.Author,
		Year:      input.Year,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, b.ID, b.Title, b.Author, b.Year, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return Book{}, fmt.Errorf("insert book: %w", err)
	}

	return b, nil
}

func (r *Repository) Update(ctx context.Context, id string, input BookInput) (Book, error) {
	var b Book
	err := r.db.QueryRowContext(ctx, `
		UPDATE books
		SET title = $2, author = $3, year = $4, updated_at = $5
		WHERE id = $1
		RETURNING id, title, author, year, created_at, updated_at
	`, id, input.Title, input.Author, input.Year, time.Now().UTC()).
		Scan(&b.ID, &b.Title, &b.Author, &b.Year, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("update book: %w", err)
	}

	return b, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("book rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
