package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores nombran el campo JSON, no el de Go.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := entity.ParseCategory(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		_, ok := entity.ParseUnit(fl.Field().String())
		return ok
	})
	return v
}

// Validate revisa las etiquetas validate de un request. El primer campo inválido
// se devuelve como *domain.ValidationError.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(fe.Field(), reason(fe))
	}
	return domain.NewValidationError("", err.Error())
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "min":
		return "debe ser al menos " + fe.Param()
	case "max":
		return "excede el máximo de " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "category":
		return "categoría no reconocida"
	case "unit":
		return "unidad no reconocida"
	}
	return "no es válido (" + fe.Tag() + ")"
}
