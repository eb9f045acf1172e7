package service

import (
	"fmt"
	"unicode"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/config"
)

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength <= 0 &&
		!policy.RequireUpper &&
		!policy.RequireLower &&
		!policy.RequireNumber &&
		!policy.RequireSpecial {
		return nil
	}

	if policy.MinLength > 0 {
		if len([]rune(password)) < policy.MinLength {
			return fmt.Errorf("%w：长度至少 %d 位", ErrPasswordTooWeak, policy.MinLength)
		}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if policy.RequireUpper && !hasUpper {
		return fmt.Errorf("%w：需要包含大写字母", ErrPasswordTooWeak)
	}
	if policy.RequireLower && !hasLower {
		return fmt.Errorf("%w：需要包含小写字母", ErrPasswordTooWeak)
	}
	if policy.RequireNumber && !hasNumber {
		return fmt.Errorf("%w：需要包含数字", ErrPasswordTooWeak)
	}
	if policy.RequireSpecial && !hasSpecial {
		return fmt.Errorf("%w：需要包含特殊字符", ErrPasswordTooWeak)
	}

	return nil
}
