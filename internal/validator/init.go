package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	// Initialize validation
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustom(validate); err != nil {
		panic(err)
	}
}

func GetValidator() *validator.Validate {
	return validate
}

// RegisterCustom adds the game-specific tags to v:
//
//	mark        "X" or "O", case-insensitive
//	difficulty  "easy", "medium" or "hard", case-insensitive
func RegisterCustom(v *validator.Validate) error {
	if err := v.RegisterValidation("mark", func(fl validator.FieldLevel) bool {
		s := strings.ToUpper(fl.Field().String())
		return s == "X" || s == "O"
	}); err != nil {
		return err
	}
	return v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "easy", "medium", "hard":
			return true
		}
		return false
	})
}
