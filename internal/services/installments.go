package services

import (
	"fmt"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
)

// BuildInstallments expands base into one transaction per installment from
// number through total. The first installment falls on base.Date and each
// following one a calendar month later, clamped to the month end.
func BuildInstallments(base models.Transaction, number, total int) ([]models.Transaction, error) {
	if number < 1 || total <= number {
		return nil, apperrors.ErrInvalidInstallments
	}
	start, err := calendar.Parse(base.Date)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD")
	}

	series := make([]models.Transaction, 0, total-number+1)
	for i := number; i <= total; i++ {
		n, t := i, total
		tx := base
		tx.ID = ""
		tx.Description = fmt.Sprintf("%s (%d/%d)", base.Description, n, t)
		tx.Date = calendar.AddMonths(start, i-number).Format(calendar.Layout)
		tx.InstallmentNumber = &n
		tx.TotalInstallments = &t
		series = append(series, tx)
	}
	return series, nil
}
