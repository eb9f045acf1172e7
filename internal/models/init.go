package models

import (
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultSeller 初始化默认卖家账号
func InitDefaultSeller(email, password string) error {
	var count int64
	DB.Model(&User{}).Where("role = ?", constants.UserRoleSeller).Count(&count)
	if count > 0 {
		return nil
	}

	if email == "" {
		email = "seller@example.com"
	}
	if password == "" {
		password = "seller123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	seller := User{
		Email:        email,
		PasswordHash: string(hash),
		Nickname:     "默认卖家",
		Role:         constants.UserRoleSeller,
		Status:       constants.UserStatusActive,
	}

	if err := DB.Create(&seller).Error; err != nil {
		return err
	}

	if password == "seller123" {
		logger.Warnw("default_seller_created_with_default_password", "email", email)
		logger.Warnw("default_seller_password_change_required", "email", email)
	} else {
		logger.Warnw("default_seller_created", "email", email, "password_hidden", true)
	}

	return nil
}
