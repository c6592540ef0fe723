package transaction_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/school-payments/internal/transaction"
)

func TestTransaction(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transaction Service Suite")
}

type mockTransactionRepo struct {
	rows        []*transaction.View
	total       int64
	listErr     error
	statusView  *transaction.StatusView
	statusErr   error
	lastFilters transaction.Filters
}

func (m *mockTransactionRepo) List(filters transaction.Filters) ([]*transaction.View, int64, error) {
	m.lastFilters = filters
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.rows, m.total, nil
}

func (m *mockTransactionRepo) GetStatusByOrderID(orderID string) (*transaction.StatusView, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.statusView, nil
}

var _ = Describe("Transaction Service", func() {
	var (
		repo    *mockTransactionRepo
		service *transaction.Service
		ctx     context.Context
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		repo = &mockTransactionRepo{}
		service = transaction.NewService(repo, testLogger)
		ctx = context.Background()
	})

	Describe("List", func() {
		It("applies listing defaults before hitting the repository", func() {
			_, _, err := service.List(ctx, transaction.Filters{})

			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilters.Page).To(Equal(1))
			Expect(repo.lastFilters.Limit).To(Equal(10))
			Expect(repo.lastFilters.Sort).To(Equal("createdAt"))
			Expect(repo.lastFilters.Order).To(Equal("asc"))
		})

		It("clamps a negative page and limit", func() {
			_, _, err := service.List(ctx, transaction.Filters{Page: -2, Limit: -5})

			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilters.Page).To(Equal(1))
			Expect(repo.lastFilters.Limit).To(Equal(10))
		})

		It("computes total pages as the ceiling of total over limit", func() {
			repo.total = 25

			_, pagination, err := service.List(ctx, transaction.Filters{Page: 2, Limit: 10})

			Expect(err).NotTo(HaveOccurred())
			Expect(pagination.Total).To(Equal(int64(25)))
			Expect(pagination.Page).To(Equal(2))
			Expect(pagination.Limit).To(Equal(10))
			Expect(pagination.TotalPages).To(Equal(int64(3)))
		})

		It("propagates repository failures", func() {
			repo.listErr = errors.New("db down")

			_, _, err := service.List(ctx, transaction.Filters{})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListBySchool", func() {
		It("forces the school filter", func() {
			_, _, err := service.ListBySchool(ctx, "school-a", transaction.Filters{SchoolID: "other"})

			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilters.SchoolID).To(Equal("school-a"))
		})
	})

	Describe("GetTransactionStatus", func() {
		It("returns the stored status view", func() {
			status := "completed"
			repo.statusView = &transaction.StatusView{CustomOrderID: "order-1", Status: &status}

			view, err := service.GetTransactionStatus(ctx, "order-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(*view.Status).To(Equal("completed"))
		})

		It("returns nil without an error for an unknown order", func() {
			repo.statusErr = transaction.ErrTransactionNotFound

			view, err := service.GetTransactionStatus(ctx, "missing")

			Expect(err).NotTo(HaveOccurred())
			Expect(view).To(BeNil())
		})

		It("propagates other repository failures", func() {
			repo.statusErr = errors.New("db down")

			_, err := service.GetTransactionStatus(ctx, "order-1")

			Expect(err).To(HaveOccurred())
		})
	})
})
