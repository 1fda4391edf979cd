package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hostel-service/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// RequestFilter captures list parameters for service requests.
type RequestFilter struct {
	OwnerID      *string
	AssigneeID   *string
	Statuses     []domain.RequestStatus
	ServiceTypes []domain.ServiceType
	Priorities   []domain.RequestPriority
	Block        *domain.Block
	Limit        int
	Offset       int
}

// MonthlyCount is the number of requests created in one calendar month (UTC).
type MonthlyCount struct {
	Year  int
	Month int
	Count int64
}

// ServiceRequestRepository encapsulates service request persistence.
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	// Update loads the request, applies mutate and persists the result as one
	// atomic step. Nothing is written when mutate returns an error.
	Update(ctx context.Context, id string, mutate func(*domain.ServiceRequest) error) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, int64, error)
	CountByStatus(ctx context.Context, ownerID *string) (map[domain.RequestStatus]int64, error)
	CountByServiceType(ctx context.Context, ownerID *string) (map[domain.ServiceType]int64, error)
	MonthlyCounts(ctx context.Context, ownerID *string, since time.Time) ([]MonthlyCount, error)
}

type serviceRequestRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRequestRepository instantiates the Postgres repository.
func NewServiceRequestRepository(pool *pgxpool.Pool) ServiceRequestRepository {
	return &serviceRequestRepository{pool: pool}
}

const requestColumns = `id, owner_user_id, service_type, status, priority, title, description,
        location_block, location_room, service_details, assignee_user_id, estimated_completion,
        actual_completion, verification_code, code_expires_at, rating, feedback, created_at, updated_at`

func (r *serviceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	details, err := domain.MarshalDetails(req.Details)
	if err != nil {
		return fmt.Errorf("encode service details: %w", err)
	}
	const query = `
        INSERT INTO service_requests (owner_user_id, service_type, status, priority, title, description,
            location_block, location_room, service_details, assignee_user_id, estimated_completion)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.OwnerID,
		req.ServiceType,
		req.Status,
		req.Priority,
		req.Title,
		req.Description,
		req.Location.Block,
		req.Location.RoomNumber,
		details,
		req.AssigneeID,
		req.EstimatedCompletion,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *serviceRequestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	return scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id=$1`, id))
}

func (r *serviceRequestRepository) Update(ctx context.Context, id string, mutate func(*domain.ServiceRequest) error) (*domain.ServiceRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := scanRequest(tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := mutate(req); err != nil {
		return nil, err
	}

	details, err := domain.MarshalDetails(req.Details)
	if err != nil {
		return nil, fmt.Errorf("encode service details: %w", err)
	}
	const query = `
        UPDATE service_requests SET status=$1, priority=$2, title=$3, description=$4, service_details=$5,
            assignee_user_id=$6, estimated_completion=$7, actual_completion=$8, verification_code=$9,
            code_expires_at=$10, rating=$11, feedback=$12, updated_at=NOW()
        WHERE id=$13
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, query,
		req.Status,
		req.Priority,
		req.Title,
		req.Description,
		details,
		req.AssigneeID,
		req.EstimatedCompletion,
		req.ActualCompletion,
		req.VerificationCode,
		req.CodeExpiresAt,
		req.Rating,
		req.Feedback,
		req.ID,
	).Scan(&req.UpdatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *serviceRequestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, int64, error) {
	where := requestWhere(filter)

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("service_requests").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	listSQL, listArgs, err := psql.Select(requestColumns).From("service_requests").Where(where).
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

	var result []domain.ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *req)
	}
	return result, total, rows.Err()
}

func (r *serviceRequestRepository) CountByStatus(ctx context.Context, ownerID *string) (map[domain.RequestStatus]int64, error) {
	counts := make(map[domain.RequestStatus]int64, len(domain.Statuses))
	err := r.groupCount(ctx, "status", ownerID, func(key string, n int64) {
		counts[domain.RequestStatus(key)] = n
	})
	return counts, err
}

func (r *serviceRequestRepository) CountByServiceType(ctx context.Context, ownerID *string) (map[domain.ServiceType]int64, error) {
	counts := make(map[domain.ServiceType]int64, len(domain.ServiceTypes))
	err := r.groupCount(ctx, "service_type", ownerID, func(key string, n int64) {
		counts[domain.ServiceType(key)] = n
	})
	return counts, err
}

func (r *serviceRequestRepository) groupCount(ctx context.Context, column string, ownerID *string, collect func(string, int64)) error {
	builder := psql.Select(column, "COUNT(*)").From("service_requests").GroupBy(column)
	if ownerID != nil {
		builder = builder.Where(sq.Eq{"owner_user_id": *ownerID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		collect(key, n)
	}
	return rows.Err()
}

func (r *serviceRequestRepository) MonthlyCounts(ctx context.Context, ownerID *string, since time.Time) ([]MonthlyCount, error) {
	builder := psql.Select(
		"EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC')::int AS year",
		"EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int AS month",
		"COUNT(*)",
	).From("service_requests").
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("year", "month").
		OrderBy("year ASC", "month ASC")
	if ownerID != nil {
		builder = builder.Where(sq.Eq{"owner_user_id": *ownerID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MonthlyCount
	for rows.Next() {
		var mc MonthlyCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		result = append(result, mc)
	}
	return result, rows.Err()
}

func requestWhere(filter RequestFilter) sq.And {
	where := sq.And{}
	if filter.OwnerID != nil {
		where = append(where, sq.Eq{"owner_user_id": *filter.OwnerID})
	}
	if filter.AssigneeID != nil {
		where = append(where, sq.Eq{"assignee_user_id": *filter.AssigneeID})
	}
	if len(filter.Statuses) > 0 {
		where = append(where, sq.Eq{"status": toStrings(filter.Statuses)})
	}
	if len(filter.ServiceTypes) > 0 {
		where = append(where, sq.Eq{"service_type": toStrings(filter.ServiceTypes)})
	}
	if len(filter.Priorities) > 0 {
		where = append(where, sq.Eq{"priority": toStrings(filter.Priorities)})
	}
	if filter.Block != nil {
		where = append(where, sq.Eq{"location_block": *filter.Block})
	}
	return where
}

func scanRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var (
		req     domain.ServiceRequest
		details []byte
		rating  *int16
	)
	if err := row.Scan(
		&req.ID,
		&req.OwnerID,
		&req.ServiceType,
		&req.Status,
		&req.Priority,
		&req.Title,
		&req.Description,
		&req.Location.Block,
		&req.Location.RoomNumber,
		&details,
		&req.AssigneeID,
		&req.EstimatedCompletion,
		&req.ActualCompletion,
		&req.VerificationCode,
		&req.CodeExpiresAt,
		&rating,
		&req.Feedback,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if rating != nil {
		v := int(*rating)
		req.Rating = &v
	}
	parsed, err := domain.UnmarshalDetails(req.ServiceType, details)
	if err != nil {
		return nil, fmt.Errorf("decode service details of %s: %w", req.ID, err)
	}
	req.Details = parsed
	return &req, nil
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// IsNotFound reports whether err signals a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
