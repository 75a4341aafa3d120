package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cinevault/api/internal/auth"
	"github.com/cinevault/api/internal/httputil"
	"github.com/cinevault/api/internal/logging"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler contains HTTP handlers for catalog endpoints
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// MovieRequest represents a movie create/update body
type MovieRequest struct {
	Title       string `json:"title"`
	Director    string `json:"director"`
	ReleaseYear int    `json:"release_year"`
	Genre       string `json:"genre"`
}

// ReviewRequest represents a review create body
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

// ListMovies handles GET /movies
// @Summary      List movies
// @Tags         movies
// @Produce      json
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200 {array} Movie
// @Router       /movies [get]
func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	limit := queryInt(r, "limit", defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := queryInt(r, "offset", 0)

	movies, err := h.repo.ListMovies(r.Context(), limit, offset)
	if err != nil {
		logger.Error("failed to list movies", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list movies", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, movies, http.StatusOK)
}

// GetMovie handles GET /movies/{id}
// @Summary      Get a movie
// @Tags         movies
// @Produce      json
// @Param        id path string true "Movie ID"
// @Success      200 {object} Movie
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /movies/{id} [get]
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	movie, err := h.repo.GetMovie(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			httputil.RespondErrorWithCode(w, "movie not found", httputil.CodeMovieNotFound, http.StatusNotFound)
			return
		}
		logging.GetLoggerFromContext(r.Context()).Error("failed to get movie", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get movie", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, movie, http.StatusOK)
}

// CreateMovie handles POST /movies (admin only)
// @Summary      Create a movie
// @Tags         movies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body MovieRequest true "Movie data"
// @Success      201 {object} Movie
// @Failure      403 {object} httputil.ErrorResponse "Requires admin role"
// @Router       /movies [post]
func (h *Handler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req MovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Title == "" {
		httputil.RespondErrorWithCode(w, "title is required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	movie, err := h.repo.CreateMovie(r.Context(), &Movie{
		Title:       req.Title,
		Director:    req.Director,
		ReleaseYear: req.ReleaseYear,
		Genre:       req.Genre,
	})
	if err != nil {
		logger.Error("failed to create movie", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create movie", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("movie created", "movie_id", movie.ID)

	httputil.RespondJSON(w, movie, http.StatusCreated)
}

// UpdateMovie handles PATCH /movies/{id} (admin only)
// @Summary      Update a movie
// @Tags         movies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Movie ID"
// @Param        request body MovieRequest true "Movie data"
// @Success      200 {object} Movie
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /movies/{id} [patch]
func (h *Handler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req MovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	movie, err := h.repo.UpdateMovie(r.Context(), &Movie{
		ID:          id,
		Title:       req.Title,
		Director:    req.Director,
		ReleaseYear: req.ReleaseYear,
		Genre:       req.Genre,
	})
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			httputil.RespondErrorWithCode(w, "movie not found", httputil.CodeMovieNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update movie", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update movie", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, movie, http.StatusOK)
}

// DeleteMovie handles DELETE /movies/{id} (admin only)
// @Summary      Delete a movie
// @Tags         movies
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Movie ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /movies/{id} [delete]
func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteMovie(r.Context(), id); err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			httputil.RespondErrorWithCode(w, "movie not found", httputil.CodeMovieNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete movie", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete movie", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("movie deleted", "movie_id", id)

	httputil.RespondJSON(w, map[string]string{"message": "movie deleted"}, http.StatusOK)
}

// ListReviews handles GET /movies/{id}/reviews
// @Summary      List reviews for a movie
// @Tags         reviews
// @Produce      json
// @Param        id path string true "Movie ID"
// @Success      200 {array} Review
// @Router       /movies/{id}/reviews [get]
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	reviews, err := h.repo.ListReviews(r.Context(), id)
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to list reviews", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list reviews", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, reviews, http.StatusOK)
}

// CreateReview handles POST /movies/{id}/reviews (authenticated)
// @Summary      Review a movie
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Movie ID"
// @Param        request body ReviewRequest true "Review data"
// @Success      201 {object} Review
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "Movie not found"
// @Router       /movies/{id}/reviews [post]
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.CurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	movieID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Rating < 1 || req.Rating > 10 {
		httputil.RespondErrorWithCode(w, "rating must be between 1 and 10", httputil.CodeInvalidRating, http.StatusBadRequest)
		return
	}

	// Reviews only attach to existing movies
	if _, err := h.repo.GetMovie(r.Context(), movieID); err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			httputil.RespondErrorWithCode(w, "movie not found", httputil.CodeMovieNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get movie for review", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create review", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	review, err := h.repo.CreateReview(r.Context(), &Review{
		MovieID: movieID,
		OwnerID: current.ID,
		Rating:  req.Rating,
		Content: req.Content,
	})
	if err != nil {
		logger.Error("failed to create review", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create review", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("review created", "review_id", review.ID, "movie_id", movieID)

	httputil.RespondJSON(w, review, http.StatusCreated)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return defaultValue
	}

	return n
}
