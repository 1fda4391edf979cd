package service

import (
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

// storeError classifies a repository failure. Missing rows become NOT_FOUND,
// statements rejected by Postgres become INTERNAL and anything else (network,
// pool exhaustion, timeouts) becomes UNAVAILABLE so callers may retry.
func storeError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return apperrors.NewInternalError(err)
	}
	return apperrors.NewUnavailable(err)
}

// checkID rejects identifiers that cannot exist. Malformed ids read as missing.
func checkID(id, resource string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return nil
}

// Page describes one page of a listing.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func resolvePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	// page*limit must stay representable as a row offset.
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

func offsetOf(page, limit int) int {
	return (page - 1) * limit
}

func newPage(page, limit int, total int64) Page {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Page{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
