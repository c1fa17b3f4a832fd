package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

const bookColumns = `
	b.id, b.title, b.writer, b.publisher, b.publication_year, b.description,
	b.price, b.stock_quantity, b.genre_id, b.created_at, b.updated_at, b.deleted_at,
	g.id, g.name, g.created_at, g.updated_at, g.deleted_at
`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type bookRepository struct {
	db querier
}

func scanBook(row pgx.Row) (*entity.Book, error) {
	var (
		book  entity.Book
		genre entity.Genre
	)
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Writer,
		&book.Publisher,
		&book.PublicationYear,
		&book.Description,
		&book.Price,
		&book.StockQuantity,
		&book.GenreID,
		&book.CreatedAt,
		&book.UpdatedAt,
		&book.DeletedAt,
		&genre.ID,
		&genre.Name,
		&genre.CreatedAt,
		&genre.UpdatedAt,
		&genre.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	book.Genre = &genre
	return &book, nil
}

func (r *bookRepository) Create(ctx context.Context, book *entity.Book) error {
	query := `
		INSERT INTO books (id, title, writer, publisher, publication_year, description,
			price, stock_quantity, genre_id, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		book.ID, book.Title, book.Writer, book.Publisher, book.PublicationYear, book.Description,
		book.Price, book.StockQuantity, book.GenreID, book.CreatedAt, book.UpdatedAt, book.DeletedAt,
	)
	return translate(err)
}

func (r *bookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b JOIN genres g ON g.id = b.genre_id WHERE b.id = $1`
	book, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return book, nil
}

// GetForUpdate locks the book row only; the genre row stays unlocked.
func (r *bookRepository) GetForUpdate(ctx context.Context, id string) (*entity.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b JOIN genres g ON g.id = b.genre_id WHERE b.id = $1 FOR UPDATE OF b`
	book, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return book, nil
}

func (r *bookRepository) GetByTitle(ctx context.Context, title string) (*entity.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b JOIN genres g ON g.id = b.genre_id WHERE b.title = $1`
	book, err := scanBook(r.db.QueryRow(ctx, query, title))
	if err != nil {
		return nil, translate(err)
	}
	return book, nil
}

func (r *bookRepository) List(ctx context.Context, filter repository.BookFilter) ([]entity.Book, int, error) {
	where := `
		WHERE b.deleted_at IS NULL
		AND b.title ILIKE '%' || $1 || '%'
		AND ($2::text = '' OR b.genre_id = $2)
	`
	pattern := likeEscaper.Replace(filter.Query)

	var total int
	countQuery := `SELECT COUNT(*) FROM books b ` + where
	if err := r.db.QueryRow(ctx, countQuery, pattern, filter.GenreID).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	query := `SELECT ` + bookColumns + ` FROM books b JOIN genres g ON g.id = b.genre_id ` + where + `
		ORDER BY b.created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, pattern, filter.GenreID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	books := []entity.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepository) CountActiveByGenre(ctx context.Context, genreID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM books WHERE genre_id = $1 AND deleted_at IS NULL`,
		genreID,
	).Scan(&count)
	return count, translate(err)
}

func (r *bookRepository) Update(ctx context.Context, book *entity.Book) error {
	query := `
		UPDATE books
		SET title = $2, writer = $3, publisher = $4, publication_year = $5, description = $6,
			price = $7, stock_quantity = $8, genre_id = $9, updated_at = $10, deleted_at = $11
		WHERE id = $1
	`
	return mustAffect(r.db.Exec(ctx, query,
		book.ID, book.Title, book.Writer, book.Publisher, book.PublicationYear, book.Description,
		book.Price, book.StockQuantity, book.GenreID, book.UpdatedAt, book.DeletedAt,
	))
}

func (r *bookRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	query := `UPDATE books SET stock_quantity = $2, updated_at = NOW() WHERE id = $1`
	return mustAffect(r.db.Exec(ctx, query, id, stock))
}
