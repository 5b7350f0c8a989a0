package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentory/pkg/logger"
	"rentory/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *BookingValidator) ValidateCreate(input *model.BookingCreate) error {
	if err := v.validate.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !input.EndDate.After(input.StartDate) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndDate",
				Message: "end_date must be after start_date",
			},
		}
	}

	if _, err := primitive.ObjectIDFromHex(input.CustomerID); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "CustomerID",
				Message: "customer_id must be a valid object ID",
			},
		}
	}

	return v.validateItemLines(input.Items)
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.StartDate != nil && update.EndDate != nil {
		if !update.EndDate.After(*update.StartDate) {
			return ValidationErrors{
				ValidationError{
					Field:   "EndDate",
					Message: "end_date must be after start_date",
				},
			}
		}
	}

	if update.CustomerID != nil {
		if _, err := primitive.ObjectIDFromHex(*update.CustomerID); err != nil {
			return ValidationErrors{
				ValidationError{
					Field:   "CustomerID",
					Message: "customer_id must be a valid object ID",
				},
			}
		}
	}

	if update.Items != nil {
		return v.validateItemLines(update.Items)
	}

	return nil
}

func (v *BookingValidator) validateItemLines(items []model.BookingItemInput) error {
	seen := make(map[string]struct{}, len(items))
	for i, line := range items {
		if _, err := primitive.ObjectIDFromHex(line.ItemID); err != nil {
			return ValidationErrors{
				ValidationError{
					Field:   fmt.Sprintf("Items[%d].ItemID", i),
					Message: "item_id must be a valid object ID",
				},
			}
		}
		if _, dup := seen[line.ItemID]; dup {
			return ValidationErrors{
				ValidationError{
					Field:   fmt.Sprintf("Items[%d].ItemID", i),
					Message: "duplicate item in booking",
				},
			}
		}
		seen[line.ItemID] = struct{}{}
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
