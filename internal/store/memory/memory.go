package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"oshudkini/backend/internal/domain"
	"oshudkini/backend/internal/store"
	"oshudkini/backend/internal/xid"
)

type Store struct {
	mu           sync.RWMutex
	products     map[string]domain.Product
	employees    map[string]domain.Employee
	salaries     map[string]domain.Salary
	expenses     map[string]domain.Expense
	sales        map[string]domain.Sale
	usersByID    map[string]domain.User
	userIDByName map[string]string
	userIDByMail map[string]string
}

// seedUsers builds the initial in-memory user account for dev/demo mode.
// The password is read from SEED_ADMIN_PASSWORD. If unset, a hardcoded
// dev default is used with a warning printed to stdout. These
// credentials are never used in production (the backend uses PostgreSQL
// when DATABASE_URL is set).
func seedUsers() []domain.User {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD to override.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}
	return []domain.User{
		{
			ID:        xid.New("user"),
			Username:  "admin",
			Email:     "admin@example.com",
			Password:  string(hash),
			CreatedAt: time.Now().UTC(),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() *Store {
	return &Store{
		products:     make(map[string]domain.Product),
		employees:    make(map[string]domain.Employee),
		salaries:     make(map[string]domain.Salary),
		expenses:     make(map[string]domain.Expense),
		sales:        make(map[string]domain.Sale),
		usersByID:    make(map[string]domain.User),
		userIDByName: make(map[string]string),
		userIDByMail: make(map[string]string),
	}
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	products := []domain.Product{
		{ID: xid.New("prod"), Name: "Paracetamol 500mg", Price: 2.50, Quantity: 200, Description: "Pain relief, strip of 10"},
		{ID: xid.New("prod"), Name: "Vitamin C 1000mg", Price: 8.00, Quantity: 120, Description: "Effervescent tablets"},
		{ID: xid.New("prod"), Name: "Hand Sanitizer 250ml", Price: 4.25, Quantity: 80, Description: "70% alcohol gel"},
		{ID: xid.New("prod"), Name: "Digital Thermometer", Price: 12.90, Quantity: 35, Description: "Fast-read, waterproof tip"},
		{ID: xid.New("prod"), Name: "First Aid Kit", Price: 19.50, Quantity: 25, Description: "42-piece home kit"},
	}
	for _, p := range products {
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
	}

	employees := []domain.Employee{
		{ID: xid.New("emp"), Name: "Nadia Rahman", Email: "nadia@example.com", JobTitle: "Pharmacist", Salary: 2800, Status: domain.EmployeeStatusActive},
		{ID: xid.New("emp"), Name: "Imran Chowdhury", Email: "imran@example.com", JobTitle: "Sales Associate", Salary: 1500, Status: domain.EmployeeStatusActive},
		{ID: xid.New("emp"), Name: "Farhana Akter", Email: "farhana@example.com", JobTitle: "Accountant", Salary: 2100, Status: domain.EmployeeStatusInactive},
	}
	for _, e := range employees {
		e.CreatedAt = now
		e.UpdatedAt = now
		s.employees[e.ID] = e
	}

	for _, u := range seedUsers() {
		s.usersByID[u.ID] = u
		s.userIDByName[strings.ToLower(u.Username)] = u.ID
		s.userIDByMail[strings.ToLower(u.Email)] = u.ID
	}

	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.Price < 0 || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if product.Name == "" || product.Price < 0 || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()

	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectEmployees(""), nil
}

func (s *Store) ListEmployeesByStatus(_ context.Context, status string) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectEmployees(status), nil
}

func (s *Store) collectEmployees(status string) []domain.Employee {
	employees := make([]domain.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		if status != "" && e.Status != status {
			continue
		}
		employees = append(employees, e)
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return employees
}

func (s *Store) GetEmployeeByID(_ context.Context, id string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, exists := s.employees[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyEmployee := employee
	return &copyEmployee, nil
}

func (s *Store) CreateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.Name == "" || employee.Email == "" {
		return nil, store.ErrInvalidInput
	}
	for _, e := range s.employees {
		if strings.EqualFold(e.Email, employee.Email) {
			return nil, store.ErrDuplicate
		}
	}
	if employee.ID == "" {
		employee.ID = xid.New("emp")
	}
	if employee.Status == "" {
		employee.Status = domain.EmployeeStatusActive
	}
	now := time.Now().UTC()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}
	employee.UpdatedAt = now

	s.employees[employee.ID] = employee
	created := employee
	return &created, nil
}

func (s *Store) UpdateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.employees[employee.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if employee.Name == "" || employee.Email == "" {
		return nil, store.ErrInvalidInput
	}
	for id, e := range s.employees {
		if id != employee.ID && strings.EqualFold(e.Email, employee.Email) {
			return nil, store.ErrDuplicate
		}
	}
	employee.CreatedAt = existing.CreatedAt
	employee.UpdatedAt = time.Now().UTC()

	s.employees[employee.ID] = employee
	updated := employee
	return &updated, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employees[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.employees, id)
	return nil
}

func (s *Store) EmployeeStats(_ context.Context) (domain.EmployeeStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.EmployeeStats{}
	for _, e := range s.employees {
		stats.Total++
		if e.Status == domain.EmployeeStatusActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
	}
	return stats, nil
}

func (s *Store) ListSalaries(_ context.Context) ([]domain.Salary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	salaries := make([]domain.Salary, 0, len(s.salaries))
	for _, sal := range s.salaries {
		salaries = append(salaries, sal)
	}
	slices.SortFunc(salaries, func(a, b domain.Salary) int {
		if a.ProcessedDate.Equal(b.ProcessedDate) {
			return cmpString(b.ID, a.ID)
		}
		if a.ProcessedDate.After(b.ProcessedDate) {
			return -1
		}
		return 1
	})
	return salaries, nil
}

func (s *Store) GetSalaryByID(_ context.Context, id string) (*domain.Salary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	salary, exists := s.salaries[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySalary := salary
	return &copySalary, nil
}

func (s *Store) GetSalaryByMonth(_ context.Context, month string) (*domain.Salary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, salary := range s.salaries {
		if salary.Month == month {
			copySalary := salary
			return &copySalary, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateSalary(_ context.Context, salary domain.Salary) (*domain.Salary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if salary.Month == "" || salary.TotalAmount < 0 {
		return nil, store.ErrInvalidInput
	}
	if salary.ID == "" {
		salary.ID = xid.New("sal")
	}
	if salary.ProcessedDate.IsZero() {
		salary.ProcessedDate = time.Now().UTC()
	}
	if salary.CreatedAt.IsZero() {
		salary.CreatedAt = time.Now().UTC()
	}

	s.salaries[salary.ID] = salary
	created := salary
	return &created, nil
}

func (s *Store) UpdateSalary(_ context.Context, salary domain.Salary) (*domain.Salary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.salaries[salary.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if salary.Month == "" || salary.TotalAmount < 0 {
		return nil, store.ErrInvalidInput
	}
	salary.CreatedAt = existing.CreatedAt

	s.salaries[salary.ID] = salary
	updated := salary
	return &updated, nil
}

func (s *Store) DeleteSalary(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salaries[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.salaries, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		expenses = append(expenses, e)
	}
	slices.SortFunc(expenses, func(a, b domain.Expense) int {
		if a.ExpenseDate.Equal(b.ExpenseDate) {
			return cmpString(b.ID, a.ID)
		}
		if a.ExpenseDate.After(b.ExpenseDate) {
			return -1
		}
		return 1
	})
	return expenses, nil
}

func (s *Store) GetExpenseByID(_ context.Context, id string) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense, exists := s.expenses[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyExpense := expense
	return &copyExpense, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.Purpose == "" || expense.Amount < 0 {
		return nil, store.ErrInvalidInput
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	now := time.Now().UTC()
	if expense.ExpenseDate.IsZero() {
		expense.ExpenseDate = now
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}

	s.expenses[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) UpdateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.expenses[expense.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if expense.Purpose == "" || expense.Amount < 0 {
		return nil, store.ErrInvalidInput
	}
	expense.CreatedAt = existing.CreatedAt

	s.expenses[expense.ID] = expense
	updated := expense
	return &updated, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ExpenseStats(_ context.Context, todayStart time.Time) (domain.ExpenseStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.ExpenseStats{}
	for _, e := range s.expenses {
		stats.TotalExpenses++
		stats.TotalAmount += e.Amount
		if !e.ExpenseDate.Before(todayStart) {
			stats.TodayAmount += e.Amount
			stats.TodayExpenseCount++
		}
	}
	return stats, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, cloneSale(sale))
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.SaleDate.Equal(b.SaleDate) {
			return cmpString(b.ID, a.ID)
		}
		if a.SaleDate.After(b.SaleDate) {
			return -1
		}
		return 1
	})
	return sales, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := cloneSale(sale)
	return &copySale, nil
}

// CreateSale resolves the draft against the catalog, checks stock for
// every line, and only then applies the decrements and records the
// sale. A failure on any line leaves products untouched.
func (s *Store) CreateSale(_ context.Context, draft domain.SaleDraft) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if draft.CustomerName == "" || len(draft.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	total := 0.0
	items := make([]domain.SaleItem, 0, len(draft.Items))
	decrements := make(map[string]int, len(draft.Items))
	for _, line := range draft.Items {
		if line.ProductID == "" || line.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
		product, exists := s.products[line.ProductID]
		if !exists {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, store.ErrNotFound)
		}
		needed := decrements[line.ProductID] + line.Quantity
		if product.Quantity < needed {
			return nil, fmt.Errorf("%w for %s: available %d, requested %d",
				store.ErrInsufficientStock, product.Name, product.Quantity, needed)
		}
		decrements[line.ProductID] = needed

		price := line.Price
		if price <= 0 {
			price = product.Price
		}
		lineTotal := price * float64(line.Quantity)
		total += lineTotal
		items = append(items, domain.SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			Price:       price,
			Total:       lineTotal,
		})
	}

	for id, qty := range decrements {
		product := s.products[id]
		product.Quantity -= qty
		product.UpdatedAt = time.Now().UTC()
		s.products[id] = product
	}

	sale := domain.Sale{
		ID:           xid.New("sale"),
		CustomerName: draft.CustomerName,
		Items:        items,
		TotalAmount:  total,
		Discount:     draft.Discount,
		FinalAmount:  total - draft.Discount,
		SaleDate:     time.Now().UTC(),
	}
	s.sales[sale.ID] = cloneSale(sale)
	created := cloneSale(sale)
	return &created, nil
}

// DeleteSale removes the sale and restores stock for each line whose
// product still exists. Lines for products deleted since the sale are
// skipped.
func (s *Store) DeleteSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	for _, item := range sale.Items {
		product, ok := s.products[item.ProductID]
		if !ok {
			continue
		}
		product.Quantity += item.Quantity
		product.UpdatedAt = time.Now().UTC()
		s.products[item.ProductID] = product
	}
	delete(s.sales, id)
	deleted := cloneSale(sale)
	return &deleted, nil
}

func (s *Store) SalesStats(_ context.Context, todayStart time.Time) (domain.SalesStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.SalesStats{}
	for _, sale := range s.sales {
		stats.TotalSales++
		stats.TotalRevenue += sale.FinalAmount
		if !sale.SaleDate.Before(todayStart) {
			stats.TodayRevenue += sale.FinalAmount
			stats.TodaySalesCount++
		}
	}
	return stats, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if username == "" || email == "" || strings.TrimSpace(user.Password) == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.userIDByName[username]; exists {
		return nil, store.ErrDuplicate
	}
	if _, exists := s.userIDByMail[email]; exists {
		return nil, store.ErrDuplicate
	}
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Username = username
	user.Email = email

	s.usersByID[user.ID] = user
	s.userIDByName[username] = user.ID
	s.userIDByMail[email] = user.ID
	created := user
	return &created, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.userIDByMail[strings.ToLower(strings.TrimSpace(email))]
	if !exists {
		return nil, store.ErrNotFound
	}
	user := s.usersByID[id]
	copyUser := user
	return &copyUser, nil
}

// FindUserByLogin matches either username or email.
func (s *Store) FindUserByLogin(_ context.Context, login string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(login))
	id, exists := s.userIDByName[key]
	if !exists {
		id, exists = s.userIDByMail[key]
	}
	if !exists {
		return nil, store.ErrNotFound
	}
	user := s.usersByID[id]
	copyUser := user
	return &copyUser, nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneSale(src domain.Sale) domain.Sale {
	dup := src
	items := make([]domain.SaleItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}
