package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

type bookRepository struct {
	db *sql.DB
}

// NewBookRepository создаёт PostgreSQL-реализацию BookRepository.
func NewBookRepository(store *Store) domain.BookRepository {
	return &bookRepository{db: store.DB()}
}

const bookColumns = `id, title, author, isbn, genre, price_minor, stock_quantity,
	published_year, description, created_at, updated_at`

func (r *bookRepository) Create(book domain.Book) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO books (
			id, title, author, isbn, genre, price_minor, stock_quantity,
			published_year, description, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		book.ID, book.Title, book.Author, book.ISBN, book.Genre,
		book.PriceMinor, book.StockQuantity, book.PublishedYear,
		book.Description, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrBookISBNTaken
		}
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

func (r *bookRepository) Get(id string) (domain.Book, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id)

	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Book{}, domain.ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("select book: %w", err)
	}

	return book, nil
}

func (r *bookRepository) List(filter domain.BookFilter, page domain.Page) ([]domain.Book, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	page = page.Normalize()

	where := make([]string, 0, 4)
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + strings.ToLower(s) + "%")
		where = append(where, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(author) LIKE %s OR LOWER(isbn) LIKE %s)", p, p, p))
	}
	if filter.Genre != "" {
		where = append(where, "genre = "+arg(filter.Genre))
	}
	if filter.MinPriceMinor > 0 {
		where = append(where, "price_minor >= "+arg(filter.MinPriceMinor))
	}
	if filter.MaxPriceMinor > 0 {
		where = append(where, "price_minor <= "+arg(filter.MaxPriceMinor))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	query := `SELECT ` + bookColumns + ` FROM books` + cond +
		` ORDER BY created_at DESC, id DESC LIMIT ` + arg(page.Limit) +
		` OFFSET ` + arg(page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := make([]domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate book rows: %w", err)
	}

	return books, total, nil
}

func (r *bookRepository) Update(book domain.Book) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET title = $2,
		    author = $3,
		    genre = $4,
		    price_minor = $5,
		    stock_quantity = $6,
		    published_year = $7,
		    description = $8,
		    updated_at = $9
		WHERE id = $1
	`,
		book.ID, book.Title, book.Author, book.Genre, book.PriceMinor,
		book.StockQuantity, book.PublishedYear, book.Description, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}

	return requireAffected(res, domain.ErrBookNotFound)
}

func (r *bookRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	return requireAffected(res, domain.ErrBookNotFound)
}

// DecrementStock — единственная точка списания: одно условное UPDATE,
// никакого чтения перед записью. Ноль затронутых строк означает либо
// нехватку стока, либо отсутствие книги; различает их вызывающая сторона.
func (r *bookRepository) DecrementStock(id string, qty int32) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET stock_quantity = stock_quantity - $2,
		    updated_at = $3
		WHERE id = $1
		  AND stock_quantity >= $2
	`, id, qty, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement stock rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *bookRepository) IncrementStock(id string, qty int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET stock_quantity = stock_quantity + $2,
		    updated_at = $3
		WHERE id = $1
	`, id, qty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}

	return requireAffected(res, domain.ErrBookNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (domain.Book, error) {
	var book domain.Book
	err := row.Scan(
		&book.ID, &book.Title, &book.Author, &book.ISBN, &book.Genre,
		&book.PriceMinor, &book.StockQuantity, &book.PublishedYear,
		&book.Description, &book.CreatedAt, &book.UpdatedAt,
	)
	return book, err
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.BookRepository = (*bookRepository)(nil)
