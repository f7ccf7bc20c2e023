package credentials

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validation messages returned by ValidateEmail and ValidatePassword.
const (
	MsgEmailRequired     = "Email is required"
	MsgEmailInvalid      = "Please enter a valid email address"
	MsgPasswordRequired  = "Password is required"
	MsgPasswordTooShort  = "Password must be at least 8 characters"
	MsgPasswordLowercase = "Password must contain at least one lowercase letter"
	MsgPasswordUppercase = "Password must contain at least one uppercase letter"
	MsgPasswordDigit     = "Password must contain at least one number"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidateEmail returns an error message for an empty or malformed email,
// or "" when the address is acceptable.
func ValidateEmail(email string) string {
	if email == "" {
		return MsgEmailRequired
	}
	if err := validate.Var(email, "email"); err != nil {
		return MsgEmailInvalid
	}
	return ""
}

// ValidatePassword returns the message of the first rule password breaks,
// or "" when it is strong enough.
func ValidatePassword(password string) string {
	if password == "" {
		return MsgPasswordRequired
	}
	if len([]rune(password)) < MinPasswordLength {
		return MsgPasswordTooShort
	}

	// Character classes are ASCII only; other letters and digits count for length.
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	switch {
	case !lower:
		return MsgPasswordLowercase
	case !upper:
		return MsgPasswordUppercase
	case !digit:
		return MsgPasswordDigit
	}
	return ""
}
