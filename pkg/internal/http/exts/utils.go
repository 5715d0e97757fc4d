package exts

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validation = validator.New(validator.WithRequiredStructEnabled())

func ValidateStruct(data any) error {
	return validation.Struct(data)
}

// BindQueryAndValidate parses the query string into data and validates it.
func BindQueryAndValidate(c *fiber.Ctx, data any) error {
	if err := c.QueryParser(data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	} else if err := ValidateStruct(data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
