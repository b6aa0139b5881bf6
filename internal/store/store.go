package store

import (
	"context"
	"errors"
	"time"

	"oshudkini/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("duplicate")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	ListEmployeesByStatus(ctx context.Context, status string) ([]domain.Employee, error)
	GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error)
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	EmployeeStats(ctx context.Context) (domain.EmployeeStats, error)

	ListSalaries(ctx context.Context) ([]domain.Salary, error)
	GetSalaryByID(ctx context.Context, id string) (*domain.Salary, error)
	GetSalaryByMonth(ctx context.Context, month string) (*domain.Salary, error)
	CreateSalary(ctx context.Context, salary domain.Salary) (*domain.Salary, error)
	UpdateSalary(ctx context.Context, salary domain.Salary) (*domain.Salary, error)
	DeleteSalary(ctx context.Context, id string) error

	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	GetExpenseByID(ctx context.Context, id string) (*domain.Expense, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ExpenseStats(ctx context.Context, todayStart time.Time) (domain.ExpenseStats, error)

	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	CreateSale(ctx context.Context, draft domain.SaleDraft) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) (*domain.Sale, error)
	SalesStats(ctx context.Context, todayStart time.Time) (domain.SalesStats, error)

	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByLogin(ctx context.Context, login string) (*domain.User, error)
}
