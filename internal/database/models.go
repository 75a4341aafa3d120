package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persistence model for accounts.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull,default:'member'"`
	IsVerified   bool      `bun:"is_verified,notnull,default:false"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

// EmailVerificationToken stores the bcrypt hash of an outstanding one-time
// code. The unique index on user_id keeps at most one row per account; expiry
// is a query-time cutoff on created_at.
type EmailVerificationToken struct {
	bun.BaseModel `bun:"table:email_verification_tokens"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,unique,type:uuid"`
	TokenHash string    `bun:"token_hash,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// Movie is the persistence model for catalog entries.
type Movie struct {
	bun.BaseModel `bun:"table:movies"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Title       string    `bun:"title,notnull"`
	Director    string    `bun:"director"`
	ReleaseYear int       `bun:"release_year"`
	Genre       string    `bun:"genre"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

// Review is the persistence model for user reviews of a movie.
type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	MovieID   uuid.UUID `bun:"movie_id,notnull,type:uuid"`
	OwnerID   uuid.UUID `bun:"owner_id,notnull,type:uuid"`
	Rating    int       `bun:"rating,notnull"`
	Content   string    `bun:"content"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
