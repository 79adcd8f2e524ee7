package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	RegisterCustomValidations(validate)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Message turns a validation failure into the text shown to API clients.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}

	for _, fe := range verrs {
		switch fe.Field() {
		case "Latitude", "Longitude":
			if fe.Tag() == "required" {
				return "Latitude and longitude are required"
			}
			return "Invalid coordinates"
		}
	}

	fe := verrs[0]
	if fe.Field() == "AlertDistanceMeters" {
		return "Alert distance must be between 100 and 2000 meters"
	}
	switch fe.Tag() {
	case "incident_type":
		return "Type must be 'roadblock' or 'accident'"
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte", "lte", "min", "max":
		return fmt.Sprintf("%s is out of range", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
