package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/nutribowl/storefront/internal/auth"
)

// Customer is the model for the 'customers' table.
// Only the hash of the most recently issued bearer token is kept,
// so logging in again invalidates the previous token.
type Customer struct {
	Phone        string    `json:"phone" db:"phone"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	PasswordSalt string    `json:"-" db:"password_salt"`
	AccessHash   *string   `json:"-" db:"access_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// CustomerProfile is the public view returned after register/login.
type CustomerProfile struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// NormalizePhone strips every non-digit and keeps the last ten digits,
// so "+91 98765-43210" becomes "9876543210".
func NormalizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// IsValidMobile reports whether an already normalized phone is an Indian mobile number.
func IsValidMobile(phone string) bool {
	return mobilePattern.MatchString(phone)
}

// Password pairs a derived hash with the per-customer salt it was derived with.
type Password struct {
	Hash string
	Salt string
}

// Set draws a fresh salt and derives the hash for plaintextPassword.
func (p *Password) Set(plaintextPassword string) error {
	salt, err := auth.NewSalt()
	if err != nil {
		return err
	}
	p.Salt = salt
	p.Hash = auth.DerivePasswordHash(plaintextPassword, salt)
	return nil
}

// Matches reports whether plaintextPassword reproduces the stored hash.
func (p *Password) Matches(plaintextPassword string) bool {
	return auth.VerifyPassword(plaintextPassword, p.Hash, p.Salt)
}
