// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
)

var (
	hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	monthRegex    = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	registerOnce  sync.Once
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			RegisterOn(v)
		}
	})
}

// RegisterOn registers the custom tags on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("category_type", validateCategoryType)
	_ = v.RegisterValidation("account_type", validateAccountType)
	_ = v.RegisterValidation("user_role", validateUserRole)
	_ = v.RegisterValidation("avatar", validateAvatar)
	_ = v.RegisterValidation("iso_date", validateISODate)
	_ = v.RegisterValidation("iso_month", validateISOMonth)
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch models.TransactionType(fl.Field().String()) {
	case models.TransactionTypeIncome, models.TransactionTypeExpense, models.TransactionTypeCreditCard:
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch models.CategoryType(fl.Field().String()) {
	case models.CategoryTypeIncome, models.CategoryTypeExpense:
		return true
	}
	return false
}

func validateAccountType(fl validator.FieldLevel) bool {
	switch models.AccountType(fl.Field().String()) {
	case models.AccountTypeChecking, models.AccountTypeSavings, models.AccountTypeCreditCard,
		models.AccountTypeInvestment, models.AccountTypeCash:
		return true
	}
	return false
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.Role(fl.Field().String()) {
	case models.RoleAdmin, models.RoleUser:
		return true
	}
	return false
}

func validateAvatar(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.AvatarMale, models.AvatarFemale:
		return true
	}
	return false
}

func validateISODate(fl validator.FieldLevel) bool {
	return calendar.Valid(fl.Field().String())
}

func validateISOMonth(fl validator.FieldLevel) bool {
	return monthRegex.MatchString(fl.Field().String())
}
