package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

func TestParseInstallment(t *testing.T) {
	number, total, err := parseInstallment("2/12")
	require.NoError(t, err)
	assert.Equal(t, 2, number)
	assert.Equal(t, 12, total)

	number, total, err = parseInstallment(" 1 / 3 ")
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 3}, [2]int{number, total})

	for _, bad := range []string{"", "3", "a/3", "1/b", "1-3"} {
		_, _, err := parseInstallment(bad)
		assert.Error(t, err, bad)
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, apperrors.ErrOfflineBlocked.Message, describe(apperrors.ErrOfflineBlocked))
	assert.Equal(t, "Back soon", describe(apperrors.WithMessage(apperrors.ErrSystemLocked, "Back soon")))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}

func TestInput(t *testing.T) {
	out := new(bytes.Buffer)
	in := newInput(strings.NewReader("  ana \n s3cret \ns3cret\n"))

	got, err := in.line(out, "Username: ")
	require.NoError(t, err)
	assert.Equal(t, "ana", got)

	got, err = in.secret(out, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, " s3cret ", got, "passwords are taken verbatim")

	got, err = in.secret(out, "Confirm password: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, "Username: Password: Confirm password: ", out.String())

	_, err = in.line(out, "Username: ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPrintReport(t *testing.T) {
	out := new(bytes.Buffer)
	err := printReport(out, services.MonthlyReport{
		Month:   "2024-05",
		Income:  decimal.NewFromInt(3000),
		Expense: decimal.RequireFromString("145.5"),
		Balance: decimal.RequireFromString("2854.5"),
		ByCategory: []services.ReportLine{
			{Label: services.UnknownCategory, Total: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "2024-05")
	assert.Contains(t, text, "145.50")
	assert.Contains(t, text, "2854.50")
	assert.Contains(t, text, "Unknown category")
	assert.NotContains(t, text, "Spending by account")
}
