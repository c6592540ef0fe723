package postgres

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/school-payments/internal/core/datamodel/order"
	paymentpkg "github.com/frahmantamala/school-payments/internal/payment"
)

// migrationUp reads a goose migration file and returns its Up section.
func migrationUp(path string) string {
	raw, err := os.ReadFile(path)
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	up, _, found := strings.Cut(string(raw), "-- +goose Down")
	gomega.Expect(found).To(gomega.BeTrue())
	return up
}

func TestPaymentRepositories(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Payment Repository Suite")
}

var webhookColumns = []string{
	"status", "transaction_amount", "payment_mode", "payment_details",
	"bank_reference", "payment_message", "payment_time", "updated_at",
}

var callbackColumns = []string{"status", "payment_details", "payment_time", "updated_at"}

var _ = ginkgo.Describe("Payment repositories", func() {
	var (
		db       *gorm.DB
		orders   paymentpkg.OrderRepository
		statuses paymentpkg.StatusRepository
		logs     paymentpkg.WebhookLogRepository
	)

	ginkgo.BeforeEach(func() {
		// Use in-memory SQLite for testing
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&order.Order{}, &order.OrderStatus{}, &order.WebhookLog{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		orders = NewOrderRepository(db)
		statuses = NewStatusRepository(db)
		logs = NewWebhookLogRepository(db)
	})

	newOrder := func() *order.Order {
		return &order.Order{
			SchoolID:  "65b0e6293e9f76a9694d84b4",
			TrusteeID: "65b0e552dd31950a9b41c5ba",
			StudentInfo: order.StudentInfo{
				Name:  "Aryan Sharma",
				ID:    "STU-1001",
				Email: "aryan@example.com",
			},
			GatewayName: "cashfree",
		}
	}

	ginkgo.Describe("OrderRepository", func() {
		ginkgo.It("assigns a uuid on create and reads the order back", func() {
			ord := newOrder()

			gomega.Expect(orders.Create(ord)).To(gomega.Succeed())
			gomega.Expect(ord.ID).ToNot(gomega.BeEmpty())

			got, err := orders.GetByID(ord.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.SchoolID).To(gomega.Equal(ord.SchoolID))
			gomega.Expect(got.StudentInfo.Email).To(gomega.Equal("aryan@example.com"))
		})

		ginkgo.It("returns an error for an unknown id", func() {
			_, err := orders.GetByID("does-not-exist")
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("StatusRepository.Upsert", func() {
		var ord *order.Order

		ginkgo.BeforeEach(func() {
			ord = newOrder()
			gomega.Expect(orders.Create(ord)).To(gomega.Succeed())
		})

		seed := func() {
			gomega.Expect(statuses.Upsert(&order.OrderStatus{
				CollectID:         ord.ID,
				OrderAmount:       2000,
				TransactionAmount: 2000,
				PaymentMode:       "online",
				BankReference:     "CR1",
				PaymentMessage:    "Payment request created",
				Status:            "pending",
				PaymentTime:       time.Now().UTC(),
			}, webhookColumns...)).To(gomega.Succeed())
		}

		ginkgo.It("inserts when no row exists for the collect id", func() {
			seed()

			got, err := statuses.GetByCollectID(ord.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.Status).To(gomega.Equal("pending"))
			gomega.Expect(got.BankReference).To(gomega.Equal("CR1"))
		})

		ginkgo.It("keeps exactly one row per collect id across repeated upserts", func() {
			seed()

			gomega.Expect(statuses.Upsert(&order.OrderStatus{
				CollectID:         ord.ID,
				TransactionAmount: 2000,
				PaymentMode:       "upi",
				PaymentDetails:    "success@ybl",
				BankReference:     "TX1",
				PaymentMessage:    "payment success",
				Status:            "success",
				PaymentTime:       time.Now().UTC(),
			}, webhookColumns...)).To(gomega.Succeed())

			var count int64
			gomega.Expect(db.Model(&order.OrderStatus{}).Where("collect_id = ?", ord.ID).Count(&count).Error).To(gomega.Succeed())
			gomega.Expect(count).To(gomega.Equal(int64(1)))

			got, err := statuses.GetByCollectID(ord.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.Status).To(gomega.Equal("success"))
			gomega.Expect(got.BankReference).To(gomega.Equal("TX1"))
		})

		ginkgo.It("restricts a partial upsert to the named columns", func() {
			seed()

			gomega.Expect(statuses.Upsert(&order.OrderStatus{
				CollectID:      ord.ID,
				Status:         "failed",
				PaymentDetails: "bank declined",
				PaymentTime:    time.Now().UTC(),
			}, callbackColumns...)).To(gomega.Succeed())

			got, err := statuses.GetByCollectID(ord.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.Status).To(gomega.Equal("failed"))
			gomega.Expect(got.PaymentDetails).To(gomega.Equal("bank declined"))

			// untouched columns keep their seeded values
			gomega.Expect(got.TransactionAmount).To(gomega.Equal(2000.0))
			gomega.Expect(got.BankReference).To(gomega.Equal("CR1"))
			gomega.Expect(got.PaymentMessage).To(gomega.Equal("Payment request created"))
		})
	})

	// These run against the real migration DDL rather than the
	// AutoMigrate schema, so a schema-level difference between the
	// two shows up here.
	ginkgo.Describe("StatusRepository.Upsert on the migrated schema", func() {
		ginkgo.BeforeEach(func() {
			var err error
			db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(db.Exec("PRAGMA foreign_keys = ON").Error).To(gomega.Succeed())

			for _, migration := range []string{
				"../../../db/migrations/20240115000002_create_orders.sql",
				"../../../db/migrations/20240115000003_create_order_statuses.sql",
			} {
				gomega.Expect(db.Exec(migrationUp(migration)).Error).To(gomega.Succeed())
			}

			statuses = NewStatusRepository(db)
		})

		ginkgo.It("creates the status row when the webhook lands before the order insert", func() {
			gomega.Expect(statuses.Upsert(&order.OrderStatus{
				CollectID:         "6808bc4888e4e3c149e5c1c1",
				TransactionAmount: 2000,
				PaymentMode:       "upi",
				PaymentDetails:    "success@ybl",
				BankReference:     "TX1",
				PaymentMessage:    "payment success",
				Status:            "success",
				PaymentTime:       time.Now().UTC(),
			}, webhookColumns...)).To(gomega.Succeed())

			got, err := statuses.GetByCollectID("6808bc4888e4e3c149e5c1c1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.Status).To(gomega.Equal("success"))
		})

		ginkgo.It("still updates in place on the unique collect_id index", func() {
			for _, status := range []string{"pending", "success"} {
				gomega.Expect(statuses.Upsert(&order.OrderStatus{
					CollectID:   "6808bc4888e4e3c149e5c1c1",
					Status:      status,
					PaymentTime: time.Now().UTC(),
				}, webhookColumns...)).To(gomega.Succeed())
			}

			var count int64
			gomega.Expect(db.Table("order_statuses").Where("collect_id = ?", "6808bc4888e4e3c149e5c1c1").Count(&count).Error).To(gomega.Succeed())
			gomega.Expect(count).To(gomega.Equal(int64(1)))
		})
	})

	ginkgo.Describe("WebhookLogRepository", func() {
		ginkgo.It("appends one audit row per delivery", func() {
			gomega.Expect(logs.Append(&order.WebhookLog{
				Endpoint:   "/payment/webhook",
				Payload:    `{"order_info":{"order_id":"order-1"}}`,
				StatusCode: 200,
				Response:   "success",
			})).To(gomega.Succeed())

			var count int64
			gomega.Expect(db.Model(&order.WebhookLog{}).Count(&count).Error).To(gomega.Succeed())
			gomega.Expect(count).To(gomega.Equal(int64(1)))
		})
	})
})
