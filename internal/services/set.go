package services

import "github.com/marcosbarbosa-dev/appfinance/internal/store"

// Set bundles every service over one store.
type Set struct {
	Config       ConfigServicer
	Audit        AuditServicer
	Users        UserServicer
	Categories   CategoryServicer
	Accounts     AccountServicer
	Transactions TransactionServicer
	Reports      ReportServicer
}

// NewSet wires every service over st.
func NewSet(st store.Store) *Set {
	s := &Set{}
	s.Config = NewConfigService(st)
	s.Audit = NewAuditService(st, s.Config)
	s.Users = NewUserService(st, s.Audit, s.Config)
	s.Categories = NewCategoryService(st)
	s.Accounts = NewAccountService(st)
	s.Transactions = NewTransactionService(st, s.Accounts)
	s.Reports = NewReportService(s.Transactions, s.Accounts, s.Categories)
	return s
}
