package checkout

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/rainballs/jivot-bez-shum/internal/models"
)

// Input is the contact + delivery form of the first checkout step.
type Input struct {
	FullName       string `validate:"required,max=150"`
	Email          string `validate:"required,email,max=254"`
	Phone          string `validate:"required,phone"`
	DeliveryMethod string `validate:"required,oneof=address office"`
	Courier        string `validate:"required,oneof=speedy econt"`
	AddressLine    string `validate:"max=255"`
	City           string `validate:"max=120"`
	PostalCode     string `validate:"max=16"`
	OfficeText     string `validate:"max=255"`
	Quantity       int    `validate:"required,min=1"`
}

// FieldErrors maps form field names to buyer-facing messages.
type FieldErrors map[string]string

var (
	phoneRx    = regexp.MustCompile(`^\+?\d[\d\s\-]{6,}$`)
	postcodeRx = regexp.MustCompile(`^\d{4}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRx.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks the unconditional field rules, then the rules that depend
// on the chosen delivery method: to-address requires address line, city and a
// 4-digit postal code; to-office requires the office descriptor.
func (in *Input) Validate() FieldErrors {
	fieldErrs := make(FieldErrors)

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			fieldErrs["form"] = "Invalid form data."
			return fieldErrs
		}
		for _, fe := range verrs {
			name, msg := fieldMessage(fe)
			if _, seen := fieldErrs[name]; !seen {
				fieldErrs[name] = msg
			}
		}
	}

	switch models.DeliveryMethod(in.DeliveryMethod) {
	case models.DeliveryToAddress:
		if in.AddressLine == "" {
			fieldErrs["address_line"] = "Address is required for delivery to an address."
		}
		if in.City == "" {
			fieldErrs["city"] = "City is required for delivery to an address."
		}
		if in.PostalCode == "" || !postcodeRx.MatchString(in.PostalCode) {
			fieldErrs["postal_code"] = "Postal code must be 4 digits."
		}
	case models.DeliveryToOffice:
		if in.OfficeText == "" {
			fieldErrs["office_text"] = "Please specify a courier office or APS."
		}
	}

	if len(fieldErrs) == 0 {
		return nil
	}
	return fieldErrs
}

func fieldMessage(fe validator.FieldError) (string, string) {
	switch fe.Field() {
	case "FullName":
		return "full_name", "Your name is required."
	case "Email":
		if fe.Tag() == "required" {
			return "email", "Email address is required."
		}
		return "email", "Please enter a valid email address."
	case "Phone":
		return "phone", "Please enter a valid phone number (e.g. +359 888 123 456)."
	case "DeliveryMethod":
		return "delivery_method", "Please choose a delivery method."
	case "Courier":
		return "courier", "Please choose a courier."
	case "Quantity":
		return "quantity", "Quantity must be at least 1."
	case "AddressLine":
		return "address_line", "Address is too long."
	case "City":
		return "city", "City is too long."
	case "PostalCode":
		return "postal_code", "Postal code is too long."
	case "OfficeText":
		return "office_text", "Office is too long."
	}
	return "form", "Invalid form data."
}
