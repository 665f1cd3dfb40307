package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/khoaugment/pos-api/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Reportar los campos con su nombre JSON.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	return v
}

// FieldError detalle de un campo inválido.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// validationDetails convierte los errores del validador en una lista de campos.
func validationDetails(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out = append(out, FieldError{Field: field, Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// validationError cuerpo 400 para un struct inválido.
func validationError(err error) dto.ErrorResponse {
	return dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: validationDetails(err)}
}

// bindJSON parsea el cuerpo y valida; si falla ya escribió la respuesta 400 y devuelve false.
func bindJSON(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if err := validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(validationError(err))
	}
	return true, nil
}

// bindQuery parsea y valida parámetros de query.
func bindQuery(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.QueryParser(dst); err != nil {
		return false, badRequest(c, "INVALID_QUERY", "parámetros de consulta inválidos")
	}
	if err := validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(validationError(err))
	}
	return true, nil
}

// paramID lee un id numérico positivo de la ruta.
func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}
