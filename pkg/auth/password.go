package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost          = 12
	RememberTokenLength = 64 // 512 bits
	MinPasswordLen      = 8
	MaxPasswordLen      = 128
)

// Common weak passwords to reject
var commonPasswords = map[string]bool{
	"password":    true,
	"12345678":    true,
	"123456789":   true,
	"qwertyui":    true,
	"password1":   true,
	"password123": true,
	"matkhau123":  true,
	"iloveyou":    true,
	"welcome1":    true,
	"letmein1":    true,
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword checks a plaintext password against a bcrypt hash.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword enforces the registration password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLen)
	}
	if commonPasswords[password] {
		return fmt.Errorf("password is too common")
	}
	return nil
}

// GenerateRememberToken creates a URL-safe random token for the
// remember-me cookie.
func GenerateRememberToken() (string, error) {
	bytes := make([]byte, RememberTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate remember token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
