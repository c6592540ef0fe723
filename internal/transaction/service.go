package transaction

import (
	"context"
	"log/slog"
)

// Repository is the read-side data access for the transactions
// listing.
type Repository interface {
	List(filters Filters) ([]*View, int64, error)
	GetStatusByOrderID(orderID string) (*StatusView, error)
}

// Service serves the paginated, sorted, filtered listing of orders
// joined with their latest status.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns one page of transactions plus pagination metadata. The
// total is counted over the same joined, filtered query as the rows
// (the join is at most 1:1, so it equals the number of matching
// orders), and a page past the end yields an empty row set, not an
// error.
func (s *Service) List(ctx context.Context, filters Filters) ([]*View, Pagination, error) {
	filters.Normalize()

	rows, total, err := s.repo.List(filters)
	if err != nil {
		s.logger.Error("failed to list transactions", "error", err, "filters", filters)
		return nil, Pagination{}, err
	}

	return rows, NewPagination(total, filters.Page, filters.Limit), nil
}

// ListBySchool is List with the school filter forced.
func (s *Service) ListBySchool(ctx context.Context, schoolID string, filters Filters) ([]*View, Pagination, error) {
	filters.SchoolID = schoolID
	return s.List(ctx, filters)
}

// GetTransactionStatus returns the joined status projection for a
// single order, or nil when the order does not exist. An order
// without a status row comes back with null status fields.
func (s *Service) GetTransactionStatus(ctx context.Context, orderID string) (*StatusView, error) {
	view, err := s.repo.GetStatusByOrderID(orderID)
	if err != nil {
		if err == ErrTransactionNotFound {
			return nil, nil
		}
		s.logger.Error("failed to get transaction status", "error", err, "order_id", orderID)
		return nil, err
	}
	return view, nil
}
