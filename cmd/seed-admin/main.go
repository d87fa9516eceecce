// seed-admin creates or updates the storefront admin user.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   ADMIN_EMAIL=... ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/models"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "Admin email (or ADMIN_EMAIL env)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Admin password (or ADMIN_PASSWORD env)")
	name := flag.String("name", "Administrador", "Admin display name")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "email and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("email = ?", *email).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Name:     *name,
			Email:    *email,
			Password: string(hashed),
			Role:     "admin",
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %s (id=%d)\n", u.Email, u.ID)
		return
	}

	if err := db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"password":  string(hashed),
		"name":      *name,
		"is_active": true,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("updated admin user %s (id=%d)\n", existing.Email, existing.ID)
}
