package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

const maxGenreNameLength = 100

type GenreRequest struct {
	Name *string `json:"name"`
}

type GenreUseCase struct {
	store repository.Store
}

func NewGenreUseCase(store repository.Store) *GenreUseCase {
	return &GenreUseCase{store: store}
}

func validateGenreName(name *string) (string, error) {
	if name == nil {
		return "", apperror.Validation("name", "Genre name is required")
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return "", apperror.Validation("name", "Genre name must be a non-empty string")
	}
	if utf8.RuneCountInString(trimmed) > maxGenreNameLength {
		return "", apperror.Validation("name", "Genre name must not exceed 100 characters")
	}
	return trimmed, nil
}

func (uc *GenreUseCase) Create(ctx context.Context, req GenreRequest) (*entity.Genre, error) {
	name, err := validateGenreName(req.Name)
	if err != nil {
		return nil, err
	}

	_, err = uc.store.Genres().GetByName(ctx, name)
	if err == nil {
		return nil, apperror.Conflict("Genre name already exists")
	}
	if !isNotFound(err) {
		return nil, internalError("failed to look up genre", err)
	}

	genre := entity.NewGenre(name)
	if err := uc.store.Genres().Create(ctx, genre); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("Genre name already exists")
		}
		return nil, internalError("failed to create genre", err)
	}

	logger.GetLogger(ctx).WithField("genre_id", genre.ID).Info("genre created")
	return genre, nil
}

func (uc *GenreUseCase) List(ctx context.Context) ([]entity.Genre, error) {
	genres, err := uc.store.Genres().List(ctx)
	if err != nil {
		return nil, internalError("failed to list genres", err)
	}
	return genres, nil
}

// Get returns an active genre.
func (uc *GenreUseCase) Get(ctx context.Context, id string) (*entity.Genre, error) {
	return activeGenre(ctx, uc.store, id)
}

func activeGenre(ctx context.Context, q repository.Queries, id string) (*entity.Genre, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.Validation("genre_id", "Genre ID is required")
	}
	genre, err := q.Genres().GetByID(ctx, id)
	if isNotFound(err) || (err == nil && genre.IsDeleted()) {
		return nil, apperror.NotFound("Genre", id)
	}
	if err != nil {
		return nil, internalError("failed to look up genre", err)
	}
	return genre, nil
}

func (uc *GenreUseCase) Update(ctx context.Context, id string, req GenreRequest) (*entity.Genre, error) {
	name, err := validateGenreName(req.Name)
	if err != nil {
		return nil, err
	}

	genre, err := activeGenre(ctx, uc.store, id)
	if err != nil {
		return nil, err
	}

	if name != genre.Name {
		_, err := uc.store.Genres().GetByName(ctx, name)
		if err == nil {
			return nil, apperror.Conflict("Genre name already exists")
		}
		if !isNotFound(err) {
			return nil, internalError("failed to look up genre", err)
		}
	}

	genre.Name = name
	genre.UpdatedAt = now()
	if err := uc.store.Genres().Update(ctx, genre); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("Genre name already exists")
		}
		return nil, internalError("failed to update genre", err)
	}
	return genre, nil
}

// Delete soft deletes a genre that no active book references.
func (uc *GenreUseCase) Delete(ctx context.Context, id string) (*entity.Genre, error) {
	genre, err := activeGenre(ctx, uc.store, id)
	if err != nil {
		return nil, err
	}

	count, err := uc.store.Books().CountActiveByGenre(ctx, id)
	if err != nil {
		return nil, internalError("failed to count books", err)
	}
	if count > 0 {
		return nil, apperror.Validation("genre_id", fmt.Sprintf("Cannot delete genre that has %d book(s) assigned to it", count))
	}

	deletedAt := now()
	genre.DeletedAt = &deletedAt
	genre.UpdatedAt = deletedAt
	if err := uc.store.Genres().Update(ctx, genre); err != nil {
		return nil, internalError("failed to delete genre", err)
	}

	logger.GetLogger(ctx).WithField("genre_id", genre.ID).Info("genre deleted")
	return genre, nil
}
