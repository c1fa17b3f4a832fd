package postgres

import (
	"context"

	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
)

const genreColumns = `id, name, created_at, updated_at, deleted_at`

type genreRepository struct {
	db querier
}

func (r *genreRepository) Create(ctx context.Context, genre *entity.Genre) error {
	query := `
		INSERT INTO genres (id, name, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, genre.ID, genre.Name, genre.CreatedAt, genre.UpdatedAt, genre.DeletedAt)
	return translate(err)
}

func (r *genreRepository) GetByID(ctx context.Context, id string) (*entity.Genre, error) {
	return r.getOne(ctx, `SELECT `+genreColumns+` FROM genres WHERE id = $1`, id)
}

func (r *genreRepository) GetByName(ctx context.Context, name string) (*entity.Genre, error) {
	return r.getOne(ctx, `SELECT `+genreColumns+` FROM genres WHERE name = $1`, name)
}

func (r *genreRepository) getOne(ctx context.Context, query string, arg string) (*entity.Genre, error) {
	var genre entity.Genre
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&genre.ID,
		&genre.Name,
		&genre.CreatedAt,
		&genre.UpdatedAt,
		&genre.DeletedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &genre, nil
}

func (r *genreRepository) List(ctx context.Context) ([]entity.Genre, error) {
	rows, err := r.db.Query(ctx, `SELECT `+genreColumns+` FROM genres WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	genres := []entity.Genre{}
	for rows.Next() {
		var genre entity.Genre
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.CreatedAt, &genre.UpdatedAt, &genre.DeletedAt); err != nil {
			return nil, err
		}
		genres = append(genres, genre)
	}
	return genres, rows.Err()
}

func (r *genreRepository) Update(ctx context.Context, genre *entity.Genre) error {
	query := `
		UPDATE genres
		SET name = $2, updated_at = $3, deleted_at = $4
		WHERE id = $1
	`
	return mustAffect(r.db.Exec(ctx, query, genre.ID, genre.Name, genre.UpdatedAt, genre.DeletedAt))
}
