package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jrsteele09/go-story-client/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
)

// User is an account held by the story service.
type User struct {
	Username     string    `json:"username"`            // Unique, immutable identity
	Name         string    `json:"name"`                // Display name
	PasswordHash string    `json:"-"`                   // Hashed version of the user's password - never serialize
	CreatedAt    time.Time `json:"createdAt"`           // Date and time when the user registered
	UpdatedAt    time.Time `json:"updatedAt,omitempty"` // Last profile change
	Favorites    []string  `json:"-"`                   // Favorited story IDs, in the order they were added
}

// ValidateUsername checks the shape of a new username: 3-32 letters, digits, '-' or '_'.
func ValidateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return fmt.Errorf("username must be between %d and %d characters long", minUsernameLength, maxUsernameLength)
	}
	for _, char := range username {
		if !unicode.IsLetter(char) && !unicode.IsDigit(char) && char != '-' && char != '_' {
			return fmt.Errorf("username may only contain letters, numbers, '-' and '_'")
		}
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// HasFavorite reports whether storyID is among the user's favorites
func (u *User) HasFavorite(storyID string) bool {
	for _, id := range u.Favorites {
		if id == storyID {
			return true
		}
	}
	return false
}

// WithFavorite returns the favorites with storyID appended, unless already present
func (u *User) WithFavorite(storyID string) []string {
	if u.HasFavorite(storyID) {
		return utils.CloneSlice(u.Favorites)
	}
	return append(append([]string(nil), u.Favorites...), storyID)
}

// WithoutFavorite returns the favorites with storyID removed
func (u *User) WithoutFavorite(storyID string) []string {
	out := make([]string, 0, len(u.Favorites))
	for _, id := range u.Favorites {
		if id != storyID {
			out = append(out, id)
		}
	}
	return out
}

// NormalizeUsername trims whitespace; usernames are case sensitive.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
