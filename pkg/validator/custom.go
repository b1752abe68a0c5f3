package validator

import "github.com/go-playground/validator/v10"

var parishes = map[string]struct{}{
	"Kingston":      {},
	"St. Andrew":    {},
	"St. Thomas":    {},
	"Portland":      {},
	"St. Mary":      {},
	"St. Ann":       {},
	"Trelawny":      {},
	"St. James":     {},
	"Hanover":       {},
	"Westmoreland":  {},
	"St. Elizabeth": {},
	"Manchester":    {},
	"Clarendon":     {},
	"St. Catherine": {},
}

func RegisterCustomValidations(validate *validator.Validate) {
	validate.RegisterValidation("parish", validateParish)
	validate.RegisterValidation("severity", validateSeverity)
	validate.RegisterValidation("channel", validateChannel)
	validate.RegisterValidation("lat", validateLat)
	validate.RegisterValidation("lng", validateLng)
}

func validateParish(fl validator.FieldLevel) bool {
	_, ok := parishes[fl.Field().String()]
	return ok
}

func validateSeverity(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "low", "medium", "high", "critical":
		return true
	}
	return false
}

func validateChannel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "sms", "email", "call", "push":
		return true
	}
	return false
}

func validateLat(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLng(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180.0 && lng <= 180.0
}
