package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"oshudkini/backend/internal/domain"
	"oshudkini/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo store.Repository
}

func New(repo store.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Price == nil {
		return domain.Product{}, store.ErrInvalidInput
	}
	if *req.Price < 0 || req.Quantity < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:        req.Name,
		Price:       *req.Price,
		Quantity:    req.Quantity,
		Description: req.Description,
	})
	if err != nil {
		return domain.Product{}, err
	}

	log.Printf("[service] product created id=%s name=%s qty=%d", created.ID, created.Name, created.Quantity)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Price = *req.Price
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Quantity = *req.Quantity
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

func (s *Service) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Employee{}, store.ErrInvalidInput
	}
	employee, err := s.repo.GetEmployeeByID(ctx, id)
	if err != nil {
		return domain.Employee{}, err
	}
	return *employee, nil
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeCreateRequest) (domain.Employee, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.JobTitle = strings.TrimSpace(req.JobTitle)
	if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		return domain.Employee{}, store.ErrInvalidInput
	}
	salary := 0.0
	if req.Salary != nil {
		if *req.Salary < 0 {
			return domain.Employee{}, store.ErrInvalidInput
		}
		salary = *req.Salary
	}

	created, err := s.repo.CreateEmployee(ctx, domain.Employee{
		Name:     req.Name,
		Email:    req.Email,
		JobTitle: req.JobTitle,
		Salary:   salary,
		Status:   domain.EmployeeStatusActive,
	})
	if err != nil {
		return domain.Employee{}, err
	}

	log.Printf("[service] employee created id=%s name=%s", created.ID, created.Name)
	return *created, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, req domain.EmployeeUpdateRequest) (domain.Employee, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Employee{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetEmployeeByID(ctx, id)
	if err != nil {
		return domain.Employee{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Employee{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" || !strings.Contains(email, "@") {
			return domain.Employee{}, store.ErrInvalidInput
		}
		updated.Email = email
	}
	if req.JobTitle != nil {
		updated.JobTitle = strings.TrimSpace(*req.JobTitle)
	}
	if req.Salary != nil {
		if *req.Salary < 0 {
			return domain.Employee{}, store.ErrInvalidInput
		}
		updated.Salary = *req.Salary
	}
	if req.Status != nil {
		if *req.Status != domain.EmployeeStatusActive && *req.Status != domain.EmployeeStatusInactive {
			return domain.Employee{}, store.ErrInvalidInput
		}
		updated.Status = *req.Status
	}

	saved, err := s.repo.UpdateEmployee(ctx, updated)
	if err != nil {
		return domain.Employee{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	return s.repo.DeleteEmployee(ctx, id)
}

func (s *Service) SetEmployeeStatus(ctx context.Context, id string, status string) (domain.Employee, error) {
	return s.UpdateEmployee(ctx, id, domain.EmployeeUpdateRequest{Status: &status})
}

func (s *Service) EmployeeStats(ctx context.Context) (domain.EmployeeStats, error) {
	return s.repo.EmployeeStats(ctx)
}

func (s *Service) ListSalaries(ctx context.Context) ([]domain.Salary, error) {
	return s.repo.ListSalaries(ctx)
}

func (s *Service) GetSalary(ctx context.Context, id string) (domain.Salary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Salary{}, store.ErrInvalidInput
	}
	salary, err := s.repo.GetSalaryByID(ctx, id)
	if err != nil {
		return domain.Salary{}, err
	}
	return *salary, nil
}

func (s *Service) CreateSalary(ctx context.Context, req domain.SalaryCreateRequest) (domain.Salary, error) {
	req.Month = strings.TrimSpace(req.Month)
	if req.Month == "" || req.TotalAmount == nil || *req.TotalAmount < 0 {
		return domain.Salary{}, store.ErrInvalidInput
	}

	processedDate := time.Now().UTC()
	if strings.TrimSpace(req.ProcessedDate) != "" {
		parsed, err := time.Parse("2006-01-02", req.ProcessedDate)
		if err != nil {
			return domain.Salary{}, store.ErrInvalidInput
		}
		processedDate = parsed.UTC()
	}
	employeeCount := 0
	if req.EmployeeCount != nil {
		if *req.EmployeeCount < 0 {
			return domain.Salary{}, store.ErrInvalidInput
		}
		employeeCount = *req.EmployeeCount
	}

	created, err := s.repo.CreateSalary(ctx, domain.Salary{
		Month:         req.Month,
		TotalAmount:   *req.TotalAmount,
		ProcessedDate: processedDate,
		EmployeeCount: employeeCount,
	})
	if err != nil {
		return domain.Salary{}, err
	}
	return *created, nil
}

func (s *Service) UpdateSalary(ctx context.Context, id string, req domain.SalaryUpdateRequest) (domain.Salary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Salary{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetSalaryByID(ctx, id)
	if err != nil {
		return domain.Salary{}, err
	}

	updated := *existing
	if req.Month != nil {
		month := strings.TrimSpace(*req.Month)
		if month == "" {
			return domain.Salary{}, store.ErrInvalidInput
		}
		updated.Month = month
	}
	if req.TotalAmount != nil {
		if *req.TotalAmount < 0 {
			return domain.Salary{}, store.ErrInvalidInput
		}
		updated.TotalAmount = *req.TotalAmount
	}
	if req.ProcessedDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.ProcessedDate)
		if err != nil {
			return domain.Salary{}, store.ErrInvalidInput
		}
		updated.ProcessedDate = parsed.UTC()
	}
	if req.EmployeeCount != nil {
		if *req.EmployeeCount < 0 {
			return domain.Salary{}, store.ErrInvalidInput
		}
		updated.EmployeeCount = *req.EmployeeCount
	}

	saved, err := s.repo.UpdateSalary(ctx, updated)
	if err != nil {
		return domain.Salary{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteSalary(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	return s.repo.DeleteSalary(ctx, id)
}

// ProcessSalaries records one payroll run for the month from the
// per-employee amounts. A month already processed is rejected so a
// double submit cannot double payroll expenses.
func (s *Service) ProcessSalaries(ctx context.Context, req domain.SalaryProcessRequest) (domain.Salary, error) {
	req.Month = strings.TrimSpace(req.Month)
	if req.Month == "" || len(req.Salaries) == 0 {
		return domain.Salary{}, store.ErrInvalidInput
	}

	if _, err := s.repo.GetSalaryByMonth(ctx, req.Month); err == nil {
		return domain.Salary{}, fmt.Errorf("salaries for %s: %w", req.Month, store.ErrDuplicate)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Salary{}, err
	}

	total := 0.0
	for _, entry := range req.Salaries {
		if entry.Amount < 0 {
			return domain.Salary{}, store.ErrInvalidInput
		}
		total += entry.Amount
	}

	created, err := s.repo.CreateSalary(ctx, domain.Salary{
		Month:         req.Month,
		TotalAmount:   total,
		ProcessedDate: time.Now().UTC(),
		EmployeeCount: len(req.Salaries),
	})
	if err != nil {
		return domain.Salary{}, err
	}

	log.Printf("[service] salaries processed month=%s employees=%d total=%.2f", created.Month, created.EmployeeCount, created.TotalAmount)
	return *created, nil
}

// CurrentMonthEmployees lists active employees for the payroll form,
// with the already-processed flag for the current month.
func (s *Service) CurrentMonthEmployees(ctx context.Context) ([]domain.Employee, string, bool, error) {
	month := time.Now().UTC().Format("2006-01")
	employees, err := s.repo.ListEmployeesByStatus(ctx, domain.EmployeeStatusActive)
	if err != nil {
		return nil, "", false, err
	}

	processed := false
	if _, err := s.repo.GetSalaryByMonth(ctx, month); err == nil {
		processed = true
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", false, err
	}

	return employees, month, processed, nil
}

// ApplySalaryAdjustment changes an employee's base salary. A raise and
// a bonus both add; a deduction subtracts but never below zero.
func (s *Service) ApplySalaryAdjustment(ctx context.Context, employeeID string, req domain.SalaryAdjustmentRequest) (domain.Employee, error) {
	employeeID = strings.TrimSpace(employeeID)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if employeeID == "" || req.Amount == nil || *req.Amount <= 0 {
		return domain.Employee{}, store.ErrInvalidInput
	}
	if req.Type != domain.SalaryAdjustmentBonus && req.Type != domain.SalaryAdjustmentDeduction && req.Type != domain.SalaryAdjustmentRaise {
		return domain.Employee{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		return domain.Employee{}, err
	}

	updated := *existing
	switch req.Type {
	case domain.SalaryAdjustmentDeduction:
		updated.Salary -= *req.Amount
		if updated.Salary < 0 {
			updated.Salary = 0
		}
	default:
		updated.Salary += *req.Amount
	}

	saved, err := s.repo.UpdateEmployee(ctx, updated)
	if err != nil {
		return domain.Employee{}, err
	}

	log.Printf("[service] salary adjustment employee=%s type=%s amount=%.2f reason=%q", saved.ID, req.Type, *req.Amount, req.Reason)
	return *saved, nil
}

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

func (s *Service) GetExpense(ctx context.Context, id string) (domain.Expense, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Expense{}, store.ErrInvalidInput
	}
	expense, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return domain.Expense{}, err
	}
	return *expense, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	req.Purpose = strings.TrimSpace(req.Purpose)
	if req.Purpose == "" || req.Amount == nil || *req.Amount < 0 {
		return domain.Expense{}, store.ErrInvalidInput
	}

	expenseDate := time.Now().UTC()
	if strings.TrimSpace(req.ExpenseDate) != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			return domain.Expense{}, store.ErrInvalidInput
		}
		expenseDate = parsed.UTC()
	}

	created, err := s.repo.CreateExpense(ctx, domain.Expense{
		Purpose:     req.Purpose,
		Amount:      *req.Amount,
		ExpenseDate: expenseDate,
	})
	if err != nil {
		return domain.Expense{}, err
	}
	return *created, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id string, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Expense{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return domain.Expense{}, err
	}

	updated := *existing
	if purpose := strings.TrimSpace(req.Purpose); purpose != "" {
		updated.Purpose = purpose
	}
	if req.Amount != nil {
		if *req.Amount < 0 {
			return domain.Expense{}, store.ErrInvalidInput
		}
		updated.Amount = *req.Amount
	}
	if strings.TrimSpace(req.ExpenseDate) != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			return domain.Expense{}, store.ErrInvalidInput
		}
		updated.ExpenseDate = parsed.UTC()
	}

	saved, err := s.repo.UpdateExpense(ctx, updated)
	if err != nil {
		return domain.Expense{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	return s.repo.DeleteExpense(ctx, id)
}

func (s *Service) ExpenseStats(ctx context.Context) (domain.ExpenseStats, error) {
	return s.repo.ExpenseStats(ctx, todayStartUTC())
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Sale{}, store.ErrInvalidInput
	}
	sale, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

// CreateSale validates the request shape and hands a draft to the
// store, which resolves prices and applies stock decrements atomically.
// Discount is taken at face value; a discount above the computed total
// yields a negative final amount.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" || len(req.Items) == 0 {
		return domain.Sale{}, store.ErrInvalidInput
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" || item.Quantity < 1 {
			return domain.Sale{}, store.ErrInvalidInput
		}
	}

	created, err := s.repo.CreateSale(ctx, domain.SaleDraft{
		CustomerName: req.CustomerName,
		Items:        req.Items,
		Discount:     req.Discount,
	})
	if err != nil {
		return domain.Sale{}, err
	}

	log.Printf("[service] sale created id=%s customer=%s items=%d final=%.2f", created.ID, created.CustomerName, len(created.Items), created.FinalAmount)
	return *created, nil
}

func (s *Service) DeleteSale(ctx context.Context, id string) (domain.Sale, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Sale{}, store.ErrInvalidInput
	}

	deleted, err := s.repo.DeleteSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}

	log.Printf("[service] sale deleted id=%s items=%d", deleted.ID, len(deleted.Items))
	return *deleted, nil
}

func (s *Service) SalesStats(ctx context.Context) (domain.SalesStats, error) {
	return s.repo.SalesStats(ctx, todayStartUTC())
}

// Dashboard composes inventory, staffing and payroll aggregates plus a
// recent-activity feed from the latest sales and expenses.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardData, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.DashboardData{}, err
	}
	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return domain.DashboardData{}, err
	}
	salaries, err := s.repo.ListSalaries(ctx)
	if err != nil {
		return domain.DashboardData{}, err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.DashboardData{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return domain.DashboardData{}, err
	}

	data := domain.DashboardData{
		TotalProducts:  len(products),
		TotalEmployees: len(employees),
		TotalSalaries:  len(salaries),
	}
	for _, p := range products {
		data.TotalProductQuantity += p.Quantity
		data.TotalProductValue += p.Price * float64(p.Quantity)
	}
	for _, e := range employees {
		if e.Status == domain.EmployeeStatusActive {
			data.ActiveEmployees++
		}
	}
	currentMonth := time.Now().UTC().Format("2006-01")
	for _, sal := range salaries {
		data.TotalSalaryExpenses += sal.TotalAmount
		if sal.Month == currentMonth {
			data.CurrentMonthSalary += sal.TotalAmount
		}
	}

	activity := make([]domain.ActivityEntry, 0, 16)
	for _, sale := range sales {
		activity = append(activity, domain.ActivityEntry{
			ID:          sale.ID,
			Type:        "sale",
			Action:      "created",
			Item:        sale.CustomerName,
			Amount:      sale.FinalAmount,
			Timestamp:   sale.SaleDate,
			Description: fmt.Sprintf("Sale to %s (%d items)", sale.CustomerName, len(sale.Items)),
		})
	}
	for _, expense := range expenses {
		activity = append(activity, domain.ActivityEntry{
			ID:          expense.ID,
			Type:        "expense",
			Action:      "recorded",
			Item:        expense.Purpose,
			Amount:      expense.Amount,
			Timestamp:   expense.ExpenseDate,
			Description: fmt.Sprintf("Expense: %s", expense.Purpose),
		})
	}
	sort.Slice(activity, func(i, j int) bool {
		return activity[i].Timestamp.After(activity[j].Timestamp)
	})
	if len(activity) > 10 {
		activity = activity[:10]
	}
	data.RecentActivity = activity

	return data, nil
}

func todayStartUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
