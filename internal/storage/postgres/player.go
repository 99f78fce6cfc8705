package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Player is a persisted player record: credentials plus the progress a
// victory writes back.
type Player struct {
	ID           int64
	Username     string
	PasswordHash string
	RoomID       string
	Level        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// ErrPlayerExists is returned when attempting to create a duplicate username.
var ErrPlayerExists = errors.New("player already exists")

// ErrInvalidCredentials is returned when authentication fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidLevel is returned when a level below 1 is saved.
var ErrInvalidLevel = errors.New("level must be >= 1")

const playerColumns = `id, username, password_hash, room_id, level, created_at, updated_at`

// PlayerRepository provides player persistence operations. Obtain one from
// Pool.Players.
type PlayerRepository struct {
	db *pgxpool.Pool
}

func scanPlayer(row pgx.Row) (Player, error) {
	var p Player
	err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &p.RoomID, &p.Level, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a new player with a bcrypt-hashed password, starting in
// roomID at level 1.
//
// Precondition: username, password, and roomID must be non-empty.
// Postcondition: Returns the created Player with ID and timestamps set,
// or ErrPlayerExists if the username is taken.
func (r *PlayerRepository) Create(ctx context.Context, username, password, roomID string) (Player, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return Player{}, fmt.Errorf("hashing password: %w", err)
	}

	p, err := scanPlayer(r.db.QueryRow(ctx,
		`INSERT INTO players (username, password_hash, room_id)
		 VALUES ($1, $2, $3)
		 RETURNING `+playerColumns,
		username, hash, roomID,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return Player{}, ErrPlayerExists
		}
		return Player{}, fmt.Errorf("inserting player: %w", err)
	}
	return p, nil
}

// Authenticate verifies credentials and returns the matching player.
//
// Postcondition: Returns the Player if credentials are valid,
// ErrPlayerNotFound if the username doesn't exist,
// or ErrInvalidCredentials if the password is wrong.
func (r *PlayerRepository) Authenticate(ctx context.Context, username, password string) (Player, error) {
	p, err := r.GetByUsername(ctx, username)
	if err != nil {
		return Player{}, err
	}
	if !CheckPassword(password, p.PasswordHash) {
		return Player{}, ErrInvalidCredentials
	}
	return p, nil
}

// GetByUsername retrieves a player by username.
//
// Postcondition: Returns the Player or ErrPlayerNotFound.
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (Player, error) {
	p, err := scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Player{}, ErrPlayerNotFound
		}
		return Player{}, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// GetByID retrieves a player by primary key.
//
// Postcondition: Returns the Player or ErrPlayerNotFound.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (Player, error) {
	p, err := scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Player{}, ErrPlayerNotFound
		}
		return Player{}, fmt.Errorf("querying player %d: %w", id, err)
	}
	return p, nil
}

// SaveLevel records the player's level after a victory.
//
// Precondition: level >= 1.
// Postcondition: The stored level equals level, or ErrInvalidLevel /
// ErrPlayerNotFound is returned.
func (r *PlayerRepository) SaveLevel(ctx context.Context, playerID int64, level int) error {
	if level < 1 {
		return ErrInvalidLevel
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET level = $1, updated_at = NOW() WHERE id = $2`,
		level, playerID,
	)
	if err != nil {
		return fmt.Errorf("updating level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// SaveCheckpoint records the room the player resumes in.
//
// Precondition: roomID must be non-empty.
// Postcondition: The stored room equals roomID, or ErrPlayerNotFound is returned.
func (r *PlayerRepository) SaveCheckpoint(ctx context.Context, playerID int64, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("saving checkpoint: room id must not be empty")
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET room_id = $1, updated_at = NOW() WHERE id = $2`,
		roomID, playerID,
	)
	if err != nil {
		return fmt.Errorf("updating checkpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// HashPassword creates a bcrypt hash of the given password.
//
// Precondition: password must be non-empty.
// Postcondition: Returns a bcrypt hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
//
// Postcondition: Returns true if password matches the hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
