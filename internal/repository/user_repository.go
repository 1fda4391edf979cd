package repository

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hostel-service/internal/domain"
)

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrHasActiveRequests is returned when disabling a user that still owns open requests.
	ErrHasActiveRequests = errors.New("user owns active service requests")
)

// UserFilter captures admin search parameters.
type UserFilter struct {
	Role      *domain.Role
	Block     *domain.Block
	Active    *bool
	Search    *string
	ExcludeID *string
	Limit     int
	Offset    int
}

// BlockCount is the number of active residents of a block.
type BlockCount struct {
	Block domain.Block
	Count int64
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	SetActive(ctx context.Context, id string, active bool) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int64, error)
	Count(ctx context.Context) (int64, error)
	CountActiveByBlock(ctx context.Context) ([]BlockCount, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, phone, role, is_active, hostel_block,
        room_number, room_type, ac_type, hostel_type, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, phone, role, is_active, hostel_block, room_number, room_type, ac_type, hostel_type)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.Active,
		user.Block,
		user.RoomNumber,
		user.RoomType,
		user.ACType,
		user.HostelType,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translateUserError(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, phone=$4, role=$5, hostel_block=$6,
            room_number=$7, room_type=$8, ac_type=$9, hostel_type=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.Block,
		user.RoomNumber,
		user.RoomType,
		user.ACType,
		user.HostelType,
		user.ID,
	).Scan(&user.UpdatedAt)
	return translateUserError(err)
}

// SetActive toggles the active flag. Disabling is refused while the user
// owns pending or in-progress requests.
func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	if active {
		cmd, err := r.pool.Exec(ctx, `UPDATE users SET is_active=TRUE, updated_at=NOW() WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	}

	const query = `
        UPDATE users SET is_active=FALSE, updated_at=NOW()
        WHERE id=$1 AND NOT EXISTS (
            SELECT 1 FROM service_requests
            WHERE owner_user_id=$1 AND status IN ('pending', 'in-progress')
        )`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrHasActiveRequests
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(email))
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int64, error) {
	where := sq.And{}
	if filter.Role != nil {
		where = append(where, sq.Eq{"role": *filter.Role})
	}
	if filter.Block != nil {
		where = append(where, sq.Eq{"hostel_block": *filter.Block})
	}
	if filter.Active != nil {
		where = append(where, sq.Eq{"is_active": *filter.Active})
	}
	if filter.ExcludeID != nil {
		where = append(where, sq.NotEq{"id": *filter.ExcludeID})
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		where = append(where, sq.Or{
			sq.Like{"LOWER(name)": term},
			sq.Like{"LOWER(email)": term},
			sq.Like{"LOWER(room_number)": term},
		})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	listSQL, listArgs, err := psql.Select(userColumns).From("users").Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	return total, err
}

func (r *userRepository) CountActiveByBlock(ctx context.Context) ([]BlockCount, error) {
	const query = `
        SELECT hostel_block, COUNT(*) FROM users
        WHERE is_active AND hostel_block IS NOT NULL
        GROUP BY hostel_block
        ORDER BY hostel_block ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlockCount
	for rows.Next() {
		var bc BlockCount
		if err := rows.Scan(&bc.Block, &bc.Count); err != nil {
			return nil, err
		}
		result = append(result, bc)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Role,
		&user.Active,
		&user.Block,
		&user.RoomNumber,
		&user.RoomType,
		&user.ACType,
		&user.HostelType,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func translateUserError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}
