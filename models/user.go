package models

import (
	"context"
	"errors"
	"time"

	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID       int    `gorm:"primary_key" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name" binding:"required"`
	Email    string `gorm:"uniqueIndex;size:100;not null" json:"email" binding:"required,email"`
	Password string `gorm:"size:100;not null" json:"-"`
	Role     string `gorm:"size:20;not null;default:'admin'" json:"role"`
	IsActive *bool  `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

var ErrorInvalidCredentials = errors.New("invalid email or password")

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := utils.ValidateUnique[User](ctx, "email", input.Email, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = "admin"
	}

	user := User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Role:     role,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyLogin returns the user on a correct email/password pair. The same
// error comes back for unknown email and wrong password.
func VerifyLogin(ctx context.Context, input *LoginInput) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).
		Where("email = ?", input.Email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorInvalidCredentials
		}
		return nil, err
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, ErrorInvalidCredentials
	}
	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		return nil, ErrorInvalidCredentials
	}
	return &user, nil
}

func GetUserById(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func CountUsers(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&User{}).Count(&count).Error
	return count, err
}
