// Package calibre reads a Calibre library's metadata.db as a read-only
// catalog store.
package calibre

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/pkg/database"
	apperrors "github.com/Mortiou/m-book/pkg/errors"
)

// MetadataFile is the database file name inside a Calibre library.
const MetadataFile = "metadata.db"

// calibreMaxRating is Calibre's rating scale; catalog ratings are out of 5.
const calibreMaxRating = 10

const bookSelect = `
	SELECT b.id, b.title,
		COALESCE((SELECT a.name FROM authors a JOIN books_authors_link l ON l.author = a.id
			WHERE l.book = b.id ORDER BY l.id LIMIT 1), ''),
		COALESCE((SELECT c.text FROM comments c WHERE c.book = b.id), ''),
		COALESCE((SELECT p.name FROM publishers p JOIN books_publishers_link l ON l.publisher = p.id
			WHERE l.book = b.id LIMIT 1), ''),
		COALESCE((SELECT s.name FROM series s JOIN books_series_link l ON l.series = s.id
			WHERE l.book = b.id LIMIT 1), ''),
		COALESCE(b.series_index, 0),
		COALESCE((SELECT lg.lang_code FROM languages lg JOIN books_languages_link l ON l.lang_code = lg.id
			WHERE l.book = b.id ORDER BY l.item_order LIMIT 1), ''),
		COALESCE((SELECT i.val FROM identifiers i WHERE i.book = b.id AND i.type = 'isbn'), b.isbn, ''),
		COALESCE((SELECT r.rating FROM ratings r JOIN books_ratings_link l ON l.rating = r.id
			WHERE l.book = b.id LIMIT 1), 0),
		COALESCE(CAST(b.pubdate AS TEXT), ''),
		COALESCE(b.has_cover, 0),
		COALESCE(b.path, '')
	FROM books b`

const (
	listBooksSQL = bookSelect + ` ORDER BY b.id`
	getBookSQL   = bookSelect + ` WHERE b.id = ?`

	listTagsSQL = `SELECT l.book, t.name FROM books_tags_link l JOIN tags t ON t.id = l.tag
		WHERE (? = 0 OR l.book = ?) ORDER BY l.book, t.name`
	listFormatsSQL = `SELECT book, format FROM data WHERE (? = 0 OR book = ?) ORDER BY book, UPPER(format)`
)

// Store implements repository.CatalogRepository over a Calibre library.
// Writes are rejected with ErrReadOnly.
type Store struct {
	db *sql.DB
}

// Open opens the metadata.db inside libraryPath read-only.
func Open(libraryPath string) (*Store, error) {
	dbPath := filepath.Join(libraryPath, MetadataFile)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("calibre: metadata database: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_query_only=true")
	if err != nil {
		return nil, fmt.Errorf("calibre: open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("calibre: ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List returns every book in the library ordered by id.
func (s *Store) List(ctx context.Context) (books []domain.Book, err error) {
	ctx, end := database.TraceStore(ctx, database.SystemSQLite, "ListBooks", listBooksSQL)
	defer func() { end(err) }()

	rows, err := s.db.QueryContext(ctx, listBooksSQL)
	if err != nil {
		return nil, fmt.Errorf("calibre list books: %w", err)
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
		return nil, fmt.Errorf("calibre iterate books: %w", err)
	}

	if err := s.attach(ctx, 0, books); err != nil {
		return nil, err
	}
	return books, nil
}

// Get retrieves one book by its Calibre id.
func (s *Store) Get(ctx context.Context, id int64) (b *domain.Book, err error) {
	ctx, end := database.TraceStore(ctx, database.SystemSQLite, "GetBook", getBookSQL)
	defer func() { end(err) }()

	b, err = scanBook(s.db.QueryRowContext(ctx, getBookSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("book", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, err
	}

	one := []domain.Book{*b}
	if err := s.attach(ctx, id, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Add is not supported on a Calibre library.
func (s *Store) Add(_ context.Context, _ *domain.Book) error {
	return apperrors.ReadOnly("calibre library")
}

// Delete is not supported on a Calibre library.
func (s *Store) Delete(_ context.Context, _ int64) error {
	return apperrors.ReadOnly("calibre library")
}

// attach loads tags and formats for books. A zero id loads them for every
// book; books must be ordered by id.
func (s *Store) attach(ctx context.Context, id int64, books []domain.Book) error {
	index := make(map[int64]*domain.Book, len(books))
	for i := range books {
		index[books[i].ID] = &books[i]
	}

	err := s.each(ctx, listTagsSQL, id, func(book int64, name string) {
		if b, ok := index[book]; ok {
			b.Tags = append(b.Tags, name)
		}
	})
	if err != nil {
		return fmt.Errorf("calibre tags: %w", err)
	}

	err = s.each(ctx, listFormatsSQL, id, func(book int64, format string) {
		if b, ok := index[book]; ok {
			b.Formats = append(b.Formats, strings.ToUpper(format))
		}
	})
	if err != nil {
		return fmt.Errorf("calibre formats: %w", err)
	}
	return nil
}

func (s *Store) each(ctx context.Context, query string, id int64, fn func(book int64, value string)) error {
	rows, err := s.db.QueryContext(ctx, query, id, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			book  int64
			value string
		)
		if err := rows.Scan(&book, &value); err != nil {
			return err
		}
		fn(book, value)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*domain.Book, error) {
	var (
		b           domain.Book
		comments    string
		seriesIndex float64
		langCode    string
		rating      int
		pubdate     string
		hasCover    bool
		path        string
	)
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&comments,
		&b.Publisher,
		&b.Series,
		&seriesIndex,
		&langCode,
		&b.ISBN,
		&rating,
		&pubdate,
		&hasCover,
		&path,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("calibre scan book: %w", err)
	}

	b.Description = stripTags(comments)
	b.Language = languageName(langCode)
	b.Rating = float64(rating) * 5 / calibreMaxRating
	b.PublishDate = parsePubdate(pubdate)
	if b.Series != "" {
		b.SeriesNumber = int(seriesIndex)
	}
	if hasCover && path != "" {
		b.Cover = path + "/cover.jpg"
	}
	b.Normalize()
	return &b, nil
}

// languageName turns an ISO 639 code such as "eng" into its English name.
func languageName(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// parsePubdate reads Calibre's timestamp text. Calibre stores unknown dates
// as year 101.
func parsePubdate(s string) domain.Date {
	if len(s) < 10 {
		return domain.Date{}
	}
	d, err := domain.ParseDate(s[:10])
	if err != nil || d.Year() < 1000 {
		return domain.Date{}
	}
	return d
}

// stripTags removes the HTML markup Calibre keeps in comments.
func stripTags(s string) string {
	var out strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
			out.WriteByte(' ')
		case !inTag:
			out.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(out.String()), " ")
}
