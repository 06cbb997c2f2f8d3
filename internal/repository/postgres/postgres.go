// Package postgres is the PostgreSQL catalog store.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/pkg/database"
	apperrors "github.com/Mortiou/m-book/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DB is the pool surface the store needs. *pgxpool.Pool and pgxmock satisfy it.
type DB interface {
	database.TxBeginner
	Ping(ctx context.Context) error
}

const bookColumns = `id, title, author, description, full_text, tags, category, language,
	publisher, series, series_number, isbn, price, original_price, rating,
	review_count, pages, COALESCE(to_char(publish_date, 'YYYY-MM-DD'), ''),
	formats, cover, audiobook, narrator`

const (
	listBooksSQL = `SELECT ` + bookColumns + ` FROM books ORDER BY id`
	getBookSQL   = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	// A zero id takes max(id)+1. Concurrent inserts racing for the same id
	// surface as a unique violation.
	insertBookSQL = `
		INSERT INTO books (id, title, author, description, full_text, tags, category, language,
			publisher, series, series_number, isbn, price, original_price, rating,
			review_count, pages, publish_date, formats, cover, audiobook, narrator)
		VALUES (
			CASE WHEN $1::bigint = 0 THEN (SELECT COALESCE(MAX(id), 0) + 1 FROM books) ELSE $1::bigint END,
			$2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			NULLIF($18, '')::date, $19, $20, $21, $22)
		RETURNING id`

	deleteBookSQL = `DELETE FROM books WHERE id = $1`
)

// Store implements repository.CatalogRepository on PostgreSQL.
type Store struct {
	db DB
}

// New creates a PostgreSQL-backed catalog store.
func New(db DB) *Store {
	return &Store{db: db}
}

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context, l *slog.Logger) error {
	return database.RunMigrations(ctx, s.db, Migrations(), l)
}

// List returns every book ordered by id.
func (s *Store) List(ctx context.Context) (books []domain.Book, err error) {
	ctx, end := database.TraceQuery(ctx, "ListBooks", listBooksSQL)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, listBooksSQL)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books = []domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book rows: %w", err)
	}
	return books, nil
}

// Get retrieves a book by id.
func (s *Store) Get(ctx context.Context, id int64) (b *domain.Book, err error) {
	ctx, end := database.TraceQuery(ctx, "GetBook", getBookSQL)
	defer func() { end(err) }()

	b, err = scanBook(s.db.QueryRow(ctx, getBookSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("book", strconv.FormatInt(id, 10))
	}
	return b, err
}

// Add inserts book and writes the stored id back to it.
func (s *Store) Add(ctx context.Context, book *domain.Book) (err error) {
	ctx, end := database.TraceQuery(ctx, "AddBook", insertBookSQL)
	defer func() { end(err) }()

	book.Normalize()
	formats := book.Formats
	if formats == nil {
		formats = []string{}
	}

	err = s.db.QueryRow(ctx, insertBookSQL,
		book.ID,
		book.Title,
		book.Author,
		book.Description,
		book.FullText,
		book.Tags,
		book.Category,
		book.Language,
		book.Publisher,
		book.Series,
		book.SeriesNumber,
		book.ISBN,
		book.Price,
		book.OriginalPrice,
		book.Rating,
		book.ReviewCount,
		book.Pages,
		book.PublishDate.String(),
		formats,
		book.Cover,
		book.HasAudiobook,
		book.Narrator,
	).Scan(&book.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("book", "id", strconv.FormatInt(book.ID, 10))
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// Delete removes a book by id.
func (s *Store) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteBook", deleteBookSQL)
	defer func() { end(err) }()

	ct, err := s.db.Exec(ctx, deleteBookSQL, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", strconv.FormatInt(id, 10))
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	var (
		b    domain.Book
		date string
	)
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Description,
		&b.FullText,
		&b.Tags,
		&b.Category,
		&b.Language,
		&b.Publisher,
		&b.Series,
		&b.SeriesNumber,
		&b.ISBN,
		&b.Price,
		&b.OriginalPrice,
		&b.Rating,
		&b.ReviewCount,
		&b.Pages,
		&date,
		&b.Formats,
		&b.Cover,
		&b.HasAudiobook,
		&b.Narrator,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	if date != "" {
		if b.PublishDate, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("book %d: %w", b.ID, err)
		}
	}
	b.Normalize()
	return &b, nil
}

// isUniqueViolation reports a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
