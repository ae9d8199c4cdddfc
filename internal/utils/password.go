package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost defines the cost for bcrypt password hashing
const PasswordHashCost = 12

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// PasswordPolicy defines the requirements for password strength
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumbers   bool
	MaxRepeatedChars int
	DisallowEmail    bool
}

// DefaultPasswordPolicy returns the default password policy
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
		MaxRepeatedChars: 3,
		DisallowEmail:    true,
	}
}

// ValidatePassword checks if a password meets the policy requirements
func (p PasswordPolicy) ValidatePassword(password, email string) error {
	if len(password) < p.MinLength {
		return errors.New("password is too short")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if p.RequireUppercase && !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if p.RequireNumbers && !hasNumber {
		return errors.New("password must contain at least one number")
	}

	if p.MaxRepeatedChars > 0 {
		for i := 0; i+p.MaxRepeatedChars <= len(password); i++ {
			if allSameChars(password[i : i+p.MaxRepeatedChars]) {
				return errors.New("password contains too many repeated characters in sequence")
			}
		}
	}

	if p.DisallowEmail && email != "" {
		local := strings.ToLower(strings.Split(email, "@")[0])
		if len(local) >= 4 && strings.Contains(strings.ToLower(password), local) {
			return errors.New("password should not contain your email address")
		}
	}

	return nil
}

func allSameChars(s string) bool {
	if len(s) <= 1 {
		return true
	}
	first := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != first {
			return false
		}
	}
	return true
}
