package services

import "github.com/marcosbarbosa-dev/appfinance/internal/models"

// DefaultCategories returns the starter categories seeded for a new user.
func DefaultCategories(uid string) []models.Category {
	owner := models.StringPtr(uid)
	return []models.Category{
		{UserID: owner, Name: "Salário", Type: models.CategoryTypeIncome, Icon: "briefcase", Color: "#16a34a"},
		{UserID: owner, Name: "Vendas", Type: models.CategoryTypeIncome, Icon: "shopping-bag", Color: "#0d9488"},
		{UserID: owner, Name: "Alimentação", Type: models.CategoryTypeExpense, Icon: "utensils", Color: "#ea580c"},
		{UserID: owner, Name: "Transporte", Type: models.CategoryTypeExpense, Icon: "car", Color: "#2563eb"},
		{UserID: owner, Name: "Lazer", Type: models.CategoryTypeExpense, Icon: "gamepad", Color: "#9333ea"},
	}
}

// DefaultAccounts returns the starter accounts seeded for a new user. The
// cash wallet is flagged as the default account.
func DefaultAccounts(uid string) []models.BankAccount {
	owner := models.StringPtr(uid)
	return []models.BankAccount{
		{UserID: owner, Name: "Carteira", Type: models.AccountTypeCash, BankName: "Dinheiro", IsDefault: true},
		{UserID: owner, Name: "Principal", Type: models.AccountTypeChecking, BankName: "Banco"},
	}
}
