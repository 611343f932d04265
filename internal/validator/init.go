package validator

import (
	"ctchen222/tic-tac-toe-minimax/internal/game"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// playermark accepts X or O, case-insensitive.
	_ = validate.RegisterValidation("playermark", func(fl validator.FieldLevel) bool {
		_, err := game.ParseMark(fl.Field().String())
		return err == nil
	})
}

func GetValidator() *validator.Validate {
	return validate
}
