package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/cinevault/api/internal/database"
)

var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrReviewNotFound = errors.New("review not found")
)

// Repository handles catalog persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateMovie inserts a new movie
func (r *Repository) CreateMovie(ctx context.Context, m *Movie) (*Movie, error) {
	now := time.Now()
	dbMovie := &database.Movie{
		ID:          uuid.New(),
		Title:       m.Title,
		Director:    m.Director,
		ReleaseYear: m.ReleaseYear,
		Genre:       m.Genre,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.NewInsert().
		Model(dbMovie).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}

	return mapDBMovie(dbMovie), nil
}

// GetMovie retrieves a movie by ID
func (r *Repository) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	dbMovie := new(database.Movie)
	err := r.db.NewSelect().
		Model(dbMovie).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	return mapDBMovie(dbMovie), nil
}

// ListMovies returns movies ordered by creation, newest first
func (r *Repository) ListMovies(ctx context.Context, limit, offset int) ([]*Movie, error) {
	var dbMovies []*database.Movie
	err := r.db.NewSelect().
		Model(&dbMovies).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	movies := make([]*Movie, 0, len(dbMovies))
	for _, dbm := range dbMovies {
		movies = append(movies, mapDBMovie(dbm))
	}

	return movies, nil
}

// UpdateMovie applies the given fields to an existing movie
func (r *Repository) UpdateMovie(ctx context.Context, m *Movie) (*Movie, error) {
	result, err := r.db.NewUpdate().
		Model((*database.Movie)(nil)).
		Set("title = ?", m.Title).
		Set("director = ?", m.Director).
		Set("release_year = ?", m.ReleaseYear).
		Set("genre = ?", m.Genre).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", m.ID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrMovieNotFound
	}

	return r.GetMovie(ctx, m.ID)
}

// DeleteMovie removes a movie and its reviews
func (r *Repository) DeleteMovie(ctx context.Context, id uuid.UUID) error {
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*database.Review)(nil)).
			Where("movie_id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}

		result, err := tx.NewDelete().
			Model((*database.Movie)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrMovieNotFound
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			return ErrMovieNotFound
		}
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	return nil
}

// CreateReview inserts a review owned by the given user
func (r *Repository) CreateReview(ctx context.Context, rv *Review) (*Review, error) {
	dbReview := &database.Review{
		ID:        uuid.New(),
		MovieID:   rv.MovieID,
		OwnerID:   rv.OwnerID,
		Rating:    rv.Rating,
		Content:   rv.Content,
		CreatedAt: time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(dbReview).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return mapDBReview(dbReview), nil
}

// ListReviews returns all reviews for a movie, newest first
func (r *Repository) ListReviews(ctx context.Context, movieID uuid.UUID) ([]*Review, error) {
	var dbReviews []*database.Review
	err := r.db.NewSelect().
		Model(&dbReviews).
		Where("movie_id = ?", movieID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := make([]*Review, 0, len(dbReviews))
	for _, dbr := range dbReviews {
		reviews = append(reviews, mapDBReview(dbr))
	}

	return reviews, nil
}

func mapDBMovie(dbm *database.Movie) *Movie {
	return &Movie{
		ID:          dbm.ID,
		Title:       dbm.Title,
		Director:    dbm.Director,
		ReleaseYear: dbm.ReleaseYear,
		Genre:       dbm.Genre,
		CreatedAt:   dbm.CreatedAt,
		UpdatedAt:   dbm.UpdatedAt,
	}
}

func mapDBReview(dbr *database.Review) *Review {
	return &Review{
		ID:        dbr.ID,
		MovieID:   dbr.MovieID,
		OwnerID:   dbr.OwnerID,
		Rating:    dbr.Rating,
		Content:   dbr.Content,
		CreatedAt: dbr.CreatedAt,
	}
}
