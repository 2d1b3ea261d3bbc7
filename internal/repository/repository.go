package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
)

var (
	// ErrNotFound indicates no user matched the lookup.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate indicates the unique username index rejected a write.
	ErrDuplicate = errors.New("repository: duplicate username")
)

const mysqlDuplicateEntry = 1062

const userColumns = `id, username, password_hash, profession, company_name, address_line1, country, state, city, subscription_plan, newsletter, profile_photo, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	user := &entity.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Profession, &user.CompanyName,
		&user.AddressLine1, &user.Country, &user.State, &user.City, &user.SubscriptionPlan,
		&user.Newsletter, &user.ProfilePhoto, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateUser inserts a new user and fails with ErrDuplicate when the
// username is already taken.
func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `INSERT INTO users (username, password_hash, profession, company_name, address_line1, country, state, city, subscription_plan, newsletter, profile_photo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		user.Username, user.PasswordHash, user.Profession, user.CompanyName, user.AddressLine1,
		user.Country, user.State, user.City, user.SubscriptionPlan, user.Newsletter, user.ProfilePhoto,
	)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	user.ID = int(id)
	return user, nil
}

// UpsertUser replaces every profile column of the row matching the username,
// or inserts one. The single statement relies on the unique username index.
func (r *UserRepository) UpsertUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `INSERT INTO users (username, password_hash, profession, company_name, address_line1, country, state, city, subscription_plan, newsletter, profile_photo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			password_hash = VALUES(password_hash),
			profession = VALUES(profession),
			company_name = VALUES(company_name),
			address_line1 = VALUES(address_line1),
			country = VALUES(country),
			state = VALUES(state),
			city = VALUES(city),
			subscription_plan = VALUES(subscription_plan),
			newsletter = VALUES(newsletter),
			profile_photo = VALUES(profile_photo)`
	_, err := r.db.ExecContext(ctx, query,
		user.Username, user.PasswordHash, user.Profession, user.CompanyName, user.AddressLine1,
		user.Country, user.State, user.City, user.SubscriptionPlan, user.Newsletter, user.ProfilePhoto,
	)
	if err != nil {
		return nil, err
	}

	return r.GetUserByUsername(ctx, user.Username)
}

func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
