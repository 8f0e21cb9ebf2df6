// seed inserts development sample data for local testing: a registered dev
// user with a wallet, plus a device PIN in the local device store.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/moaaz-s/7awel-auth-core/internal/config"
	"github.com/moaaz-s/7awel-auth-core/internal/db"
	"github.com/moaaz-s/7awel-auth-core/internal/devicestate"
	"github.com/moaaz-s/7awel-auth-core/internal/pin"
	"github.com/moaaz-s/7awel-auth-core/internal/security"
	userdomain "github.com/moaaz-s/7awel-auth-core/internal/user/domain"
	userrepo "github.com/moaaz-s/7awel-auth-core/internal/user/repository"
	walletrepo "github.com/moaaz-s/7awel-auth-core/internal/wallet/repository"
	walletsvc "github.com/moaaz-s/7awel-auth-core/internal/wallet/service"
)

const (
	devUserID    = "dev-user-001"
	devUserEmail = "dev@example.com"
	devUserPhone = "+15550100001"
	devPin       = "123456"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	now := time.Now().UTC()
	u := &userdomain.User{
		ID:            devUserID,
		FirstName:     "Dev",
		LastName:      "User",
		Email:         devUserEmail,
		Phone:         devUserPhone,
		PhoneVerified: true,
		EmailVerified: true,
		Status:        userdomain.UserStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	wallets := walletsvc.NewService(walletrepo.NewPostgresRepository(conn), users)
	w, err := wallets.Create(ctx, devUserID)
	if err != nil {
		log.Fatalf("create dev wallet: %v", err)
	}

	if err := seedDevicePin(ctx, cfg); err != nil {
		log.Fatalf("seed device pin: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev user: %s / %s (id %s)\n", devUserPhone, devUserEmail, devUserID)
	fmt.Printf("Wallet:   %s\n", w.Address)
	fmt.Printf("PIN:      %s (device store %s)\n", devPin, cfg.DeviceStorePath)
}

// seedDevicePin writes the dev PIN into the device-local store so a seeded
// install can go straight to pin-entry.
func seedDevicePin(ctx context.Context, cfg *config.Config) error {
	sdb, err := sql.Open("sqlite", cfg.DeviceStorePath)
	if err != nil {
		return err
	}
	defer sdb.Close()

	store, err := devicestate.NewSQLiteStore(sdb)
	if err != nil {
		return err
	}
	cred, err := store.Pin(ctx)
	if err != nil {
		return err
	}
	if cred != nil {
		return nil
	}
	pins := pin.NewService(store, security.NewHasher(cfg.BcryptCost), cfg.PinMaxAttempts, cfg.PinLockoutWindow())
	return pins.Set(ctx, devPin)
}
