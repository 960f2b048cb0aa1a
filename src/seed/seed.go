package seed

import (
	"log"
	"os"
	"time"

	"github.com/Inventra/Inventra-Backend/src/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed bootstraps the control database with an admin operator and, when
// SEED_TENANT is set, a first tenant registration.
func Seed(db *gorm.DB) {
	// Admin user
	username := os.Getenv("SEED_ADMIN_USER")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
	}

	var user models.UserModel
	result := db.Where("username = ?", username).First(&user)
	if result.Error == nil {
		log.Printf("User %q already exists\n", username)
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		newUser := models.UserModel{
			Username: username,
			Password: string(hashedPassword),
		}
		if err := db.Create(&newUser).Error; err != nil {
			log.Printf("Failed to create user: %v\n", err)
		} else {
			log.Printf("User %q created\n", username)
		}
	}

	// Initial tenant registration
	tenantName := os.Getenv("SEED_TENANT")
	if tenantName == "" {
		return
	}

	var tenant models.TenantModel
	result = db.Where("name = ?", tenantName).First(&tenant)
	if result.Error == nil {
		log.Printf("Tenant %q already exists\n", tenantName)
		return
	}

	newTenant := models.TenantModel{
		ID:        uuid.NewString(),
		Name:      tenantName,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&newTenant).Error; err != nil {
		log.Printf("Failed to create tenant: %v\n", err)
	} else {
		log.Printf("Tenant %q created\n", tenantName)
	}
}
