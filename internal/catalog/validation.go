package catalog

import (
	"errors"
	"fmt"
	"strings"

	"mentorbook/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	MinServicePrice = decimal.NewFromInt(500)
	MaxServicePrice = decimal.NewFromInt(10000)
)

var validate = validator.New()

func ValidateProvider(p *Provider) error {
	if err := structError(validate.Struct(p)); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("name", "must not be blank")
	}
	if !p.BaseRate.IsPositive() || !p.BaseRate.Equal(p.BaseRate.Truncate(0)) {
		return apperr.Validation("base_rate", "must be a positive whole amount")
	}
	return nil
}

func ValidateService(s *Service) error {
	if err := structError(validate.Struct(s)); err != nil {
		return err
	}
	if strings.TrimSpace(s.Title) == "" {
		return apperr.Validation("title", "must not be blank")
	}
	info, ok := s.Kind.Info()
	if !ok {
		return apperr.Wrapf(ErrUnknownKind, "unknown service kind %q", s.Kind)
	}
	if info.TimeBoxed && s.DurationMinutes == 0 {
		return apperr.Validation("duration_minutes", fmt.Sprintf("must be positive for %s", s.Kind))
	}
	if s.Price.LessThan(MinServicePrice) || s.Price.GreaterThan(MaxServicePrice) {
		return apperr.Validation("price", fmt.Sprintf("must be between %s and %s", MinServicePrice, MaxServicePrice))
	}
	return nil
}

func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(err, apperr.KindValidation, "invalid input")
	}
	fe := verrs[0]
	return apperr.Validation(strings.ToLower(fe.Field()), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}
