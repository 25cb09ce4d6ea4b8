package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/purrpal/purrpal/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

const userColumns = `id, email, username, password_hash, full_name, role, location, bio, avatar_url, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.Role,
		&u.Location, &u.Bio, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, username, password_hash, full_name, role, location, bio, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.FullName, user.Role,
		user.Location, user.Bio, user.AvatarURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// UpdateProfile overwrites the fields set in update. Nil fields keep their value.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users SET
		   full_name = COALESCE($2, full_name),
		   role = COALESCE($3, role),
		   location = COALESCE($4, location),
		   bio = COALESCE($5, bio),
		   updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, update.FullName, update.Role, update.Location, update.Bio))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email = $2, updated_at = NOW() WHERE id = $1`, id, email)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Stories ---

func (s *PostgresStore) ListStories(ctx context.Context) ([]*models.Story, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.user_id, s.recipient, s.content, s.location_name, s.location_address,
		        s.activity_image_url, s.created_at, u.username, u.avatar_url
		 FROM stories s JOIN users u ON u.id = s.user_id
		 ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []*models.Story
	for rows.Next() {
		var st models.Story
		if err := rows.Scan(&st.ID, &st.UserID, &st.Recipient, &st.Content, &st.LocationName,
			&st.LocationAddress, &st.ActivityImageURL, &st.CreatedAt, &st.AuthorUsername, &st.AuthorAvatarURL); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, &st)
	}
	return stories, rows.Err()
}

func (s *PostgresStore) CreateStory(ctx context.Context, story *models.Story) error {
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stories (id, user_id, recipient, content, location_name, location_address, activity_image_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		story.ID, story.UserID, story.Recipient, story.Content, story.LocationName,
		story.LocationAddress, story.ActivityImageURL, story.CreatedAt)
	if err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

// --- Education Modules ---

func (s *PostgresStore) ListModules(ctx context.Context) ([]*models.Module, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, icon, color, created_at
		 FROM education_modules ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var modules []*models.Module
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Icon, &m.Color, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		modules = append(modules, &m)
	}
	return modules, rows.Err()
}

// GetModule returns the module with its sections ordered by order_index.
func (s *PostgresStore) GetModule(ctx context.Context, id string) (*models.Module, error) {
	var m models.Module
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, icon, color, created_at FROM education_modules WHERE id = $1`, id,
	).Scan(&m.ID, &m.Title, &m.Description, &m.Icon, &m.Color, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, module_id, title, description, icon, color, highlights, order_index
		 FROM module_sections WHERE module_id = $1 ORDER BY order_index`, id)
	if err != nil {
		return nil, fmt.Errorf("list module sections: %w", err)
	}
	defer rows.Close()

	m.Sections = []models.ModuleSection{}
	for rows.Next() {
		var sec models.ModuleSection
		if err := rows.Scan(&sec.ID, &sec.ModuleID, &sec.Title, &sec.Description, &sec.Icon,
			&sec.Color, &sec.Highlights, &sec.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan module section: %w", err)
		}
		m.Sections = append(m.Sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &m, nil
}

// --- Veterinary Services ---

func (s *PostgresStore) ListVeterinaryServices(ctx context.Context, filter VeterinaryFilter) ([]*models.VeterinaryService, error) {
	query := `SELECT id, name, address, phone, rating, total_reviews, open_hours, services,
	                 latitude, longitude, google_map_url
	          FROM veterinary_services`
	var args []any
	if city := strings.TrimSpace(filter.City); city != "" {
		query += ` WHERE address ILIKE $1`
		args = append(args, "%"+escapeLike(city)+"%")
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list veterinary services: %w", err)
	}
	defer rows.Close()

	var services []*models.VeterinaryService
	for rows.Next() {
		var v models.VeterinaryService
		var lat, lng *float64
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.Phone, &v.Rating, &v.TotalReviews,
			&v.OpenHours, &v.Services, &lat, &lng, &v.GoogleMapURL); err != nil {
			return nil, fmt.Errorf("scan veterinary service: %w", err)
		}
		if lat != nil && lng != nil {
			v.Position = [2]float64{*lat, *lng}
		}
		services = append(services, &v)
	}
	return services, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
