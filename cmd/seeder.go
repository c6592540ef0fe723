package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"webhook_logs", "order_statuses", "orders", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminUsername := "admin"
		var exists int
		row := db.Raw("SELECT 1 FROM users WHERE username = ?", adminUsername).Row()
		err = row.Scan(&exists)
		switch {
		case err == nil:
			fmt.Println("admin user already exists")
		case errors.Is(err, sql.ErrNoRows):
			if err := db.Exec("INSERT INTO users (id, username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, now(), now())",
				uuid.NewString(), adminUsername, "admin@school-payments.local", string(hash)).Error; err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminUsername)
		default:
			log.Fatalf("failed to look up admin user: %v", err)
		}

		// A sample order with a completed status row, handy for
		// exercising the transactions listing locally.
		schoolID := "65b0e6293e9f76a9694d84b4"
		orderID := uuid.NewString()
		if err := db.Exec(`INSERT INTO orders (id, school_id, trustee_id, student_name, student_id, student_email, gateway_name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, now(), now())`,
			orderID, schoolID, "65b0e552dd31950a9b41c5ba", "Sample Student", "STU-0001", "student@example.com", "cashfree").Error; err != nil {
			log.Fatalf("failed to insert sample order: %v", err)
		}

		if err := db.Exec(`INSERT INTO order_statuses (collect_id, order_amount, transaction_amount, payment_mode, payment_details, bank_reference, payment_message, status, payment_time, created_at, updated_at)
			VALUES (?, 2000, 2000, 'upi', 'success@ybl', 'YESBNK001', 'payment success', 'completed', now(), now(), now())`,
			orderID).Error; err != nil {
			log.Fatalf("failed to insert sample order status: %v", err)
		}

		fmt.Println("Seeded sample order:", orderID)
	},
}
