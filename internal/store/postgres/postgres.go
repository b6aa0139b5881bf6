package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"oshudkini/backend/internal/domain"
	"oshudkini/backend/internal/store"
	"oshudkini/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, quantity, description, created_at, updated_at
		FROM products
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		p.UpdatedAt = p.UpdatedAt.UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, quantity, description, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Price < 0 || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, quantity, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, product.ID, product.Name, product.Price, product.Quantity, product.Description, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Price < 0 || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}

	var updated domain.Product
	err := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, price = $3, quantity = $4, description = $5, updated_at = now()
		WHERE id = $1
		RETURNING id, name, price, quantity, description, created_at, updated_at
	`, product.ID, product.Name, product.Price, product.Quantity, product.Description).Scan(
		&updated.ID, &updated.Name, &updated.Price, &updated.Quantity, &updated.Description, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	updated.CreatedAt = updated.CreatedAt.UTC()
	updated.UpdatedAt = updated.UpdatedAt.UTC()
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.listEmployees(ctx, "")
}

func (s *Store) ListEmployeesByStatus(ctx context.Context, status string) ([]domain.Employee, error) {
	return s.listEmployees(ctx, status)
}

func (s *Store) listEmployees(ctx context.Context, status string) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, job_title, salary, status, created_at, updated_at
		FROM employees
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 64)
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.JobTitle, &e.Salary, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		e.UpdatedAt = e.UpdatedAt.UTC()
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *Store) GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error) {
	var e domain.Employee
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, job_title, salary, status, created_at, updated_at
		FROM employees
		WHERE id = $1
	`, id).Scan(&e.ID, &e.Name, &e.Email, &e.JobTitle, &e.Salary, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func (s *Store) CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.Name == "" || employee.Email == "" {
		return nil, store.ErrInvalidInput
	}
	if employee.ID == "" {
		employee.ID = xid.New("emp")
	}
	if employee.Status == "" {
		employee.Status = domain.EmployeeStatusActive
	}
	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, job_title, salary, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, employee.ID, employee.Name, employee.Email, employee.JobTitle, employee.Salary, employee.Status, employee.CreatedAt, employee.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := employee
	return &created, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.Name == "" || employee.Email == "" {
		return nil, store.ErrInvalidInput
	}

	var updated domain.Employee
	err := s.db.QueryRowContext(ctx, `
		UPDATE employees
		SET name = $2, email = $3, job_title = $4, salary = $5, status = $6, updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, job_title, salary, status, created_at, updated_at
	`, employee.ID, employee.Name, employee.Email, employee.JobTitle, employee.Salary, employee.Status).Scan(
		&updated.ID, &updated.Name, &updated.Email, &updated.JobTitle, &updated.Salary, &updated.Status, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	updated.CreatedAt = updated.CreatedAt.UTC()
	updated.UpdatedAt = updated.UpdatedAt.UTC()
	return &updated, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) EmployeeStats(ctx context.Context) (domain.EmployeeStats, error) {
	var stats domain.EmployeeStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::int,
			COALESCE(SUM(CASE WHEN status = $1 THEN 1 ELSE 0 END),0)::int,
			COALESCE(SUM(CASE WHEN status <> $1 THEN 1 ELSE 0 END),0)::int
		FROM employees
	`, domain.EmployeeStatusActive).Scan(&stats.Total, &stats.Active, &stats.Inactive)
	return stats, err
}

func (s *Store) ListSalaries(ctx context.Context) ([]domain.Salary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, month, total_amount, processed_date, employee_count, created_at
		FROM salaries
		ORDER BY processed_date DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	salaries := make([]domain.Salary, 0, 32)
	for rows.Next() {
		var sal domain.Salary
		if err := rows.Scan(&sal.ID, &sal.Month, &sal.TotalAmount, &sal.ProcessedDate, &sal.EmployeeCount, &sal.CreatedAt); err != nil {
			return nil, err
		}
		sal.ProcessedDate = sal.ProcessedDate.UTC()
		sal.CreatedAt = sal.CreatedAt.UTC()
		salaries = append(salaries, sal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return salaries, nil
}

func (s *Store) GetSalaryByID(ctx context.Context, id string) (*domain.Salary, error) {
	var sal domain.Salary
	err := s.db.QueryRowContext(ctx, `
		SELECT id, month, total_amount, processed_date, employee_count, created_at
		FROM salaries
		WHERE id = $1
	`, id).Scan(&sal.ID, &sal.Month, &sal.TotalAmount, &sal.ProcessedDate, &sal.EmployeeCount, &sal.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sal.ProcessedDate = sal.ProcessedDate.UTC()
	sal.CreatedAt = sal.CreatedAt.UTC()
	return &sal, nil
}

func (s *Store) GetSalaryByMonth(ctx context.Context, month string) (*domain.Salary, error) {
	var sal domain.Salary
	err := s.db.QueryRowContext(ctx, `
		SELECT id, month, total_amount, processed_date, employee_count, created_at
		FROM salaries
		WHERE month = $1
		ORDER BY processed_date DESC
		LIMIT 1
	`, month).Scan(&sal.ID, &sal.Month, &sal.TotalAmount, &sal.ProcessedDate, &sal.EmployeeCount, &sal.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sal.ProcessedDate = sal.ProcessedDate.UTC()
	sal.CreatedAt = sal.CreatedAt.UTC()
	return &sal, nil
}

func (s *Store) CreateSalary(ctx context.Context, salary domain.Salary) (*domain.Salary, error) {
	if salary.Month == "" || salary.TotalAmount < 0 {
		return nil, store.ErrInvalidInput
	}
	if salary.ID == "" {
		salary.ID = xid.New("sal")
	}
	if salary.ProcessedDate.IsZero() {
		salary.ProcessedDate = time.Now().UTC()
	}
	salary.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salaries (id, month, total_amount, processed_date, employee_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, salary.ID, salary.Month, salary.TotalAmount, salary.ProcessedDate, salary.EmployeeCount, salary.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := salary
	return &created, nil
}

func (s *Store) UpdateSalary(ctx context.Context, salary domain.Salary) (*domain.Salary, error) {
	if salary.Month == "" || salary.TotalAmount < 0 {
		return nil, store.ErrInvalidInput
	}

	var updated domain.Salary
	err := s.db.QueryRowContext(ctx, `
		UPDATE salaries
		SET month = $2, total_amount = $3, processed_date = $4, employee_count = $5
		WHERE id = $1
		RETURNING id, month, total_amount, processed_date, employee_count, created_at
	`, salary.ID, salary.Month, salary.TotalAmount, salary.ProcessedDate, salary.EmployeeCount).Scan(
		&updated.ID, &updated.Month, &updated.TotalAmount, &updated.ProcessedDate, &updated.EmployeeCount, &updated.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	updated.ProcessedDate = updated.ProcessedDate.UTC()
	updated.CreatedAt = updated.CreatedAt.UTC()
	return &updated, nil
}

func (s *Store) DeleteSalary(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM salaries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, purpose, amount, expense_date, created_at
		FROM expenses
		ORDER BY expense_date DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 64)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Purpose, &e.Amount, &e.ExpenseDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ExpenseDate = e.ExpenseDate.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) GetExpenseByID(ctx context.Context, id string) (*domain.Expense, error) {
	var e domain.Expense
	err := s.db.QueryRowContext(ctx, `
		SELECT id, purpose, amount, expense_date, created_at
		FROM expenses
		WHERE id = $1
	`, id).Scan(&e.ID, &e.Purpose, &e.Amount, &e.ExpenseDate, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	e.ExpenseDate = e.ExpenseDate.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
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
	expense.CreatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, purpose, amount, expense_date, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, expense.ID, expense.Purpose, expense.Amount, expense.ExpenseDate, expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Purpose == "" || expense.Amount < 0 {
		return nil, store.ErrInvalidInput
	}

	var updated domain.Expense
	err := s.db.QueryRowContext(ctx, `
		UPDATE expenses
		SET purpose = $2, amount = $3, expense_date = $4
		WHERE id = $1
		RETURNING id, purpose, amount, expense_date, created_at
	`, expense.ID, expense.Purpose, expense.Amount, expense.ExpenseDate).Scan(
		&updated.ID, &updated.Purpose, &updated.Amount, &updated.ExpenseDate, &updated.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	updated.ExpenseDate = updated.ExpenseDate.UTC()
	updated.CreatedAt = updated.CreatedAt.UTC()
	return &updated, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ExpenseStats(ctx context.Context, todayStart time.Time) (domain.ExpenseStats, error) {
	var stats domain.ExpenseStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::int,
			COALESCE(SUM(amount),0)::float8,
			COALESCE(SUM(CASE WHEN expense_date >= $1 THEN amount ELSE 0 END),0)::float8,
			COALESCE(SUM(CASE WHEN expense_date >= $1 THEN 1 ELSE 0 END),0)::int
		FROM expenses
	`, todayStart).Scan(&stats.TotalExpenses, &stats.TotalAmount, &stats.TodayAmount, &stats.TodayExpenseCount)
	return stats, err
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, items, total_amount, discount, final_amount, sale_date
		FROM sales
		ORDER BY sale_date DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_name, items, total_amount, discount, final_amount, sale_date
		FROM sales
		WHERE id = $1
	`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

// CreateSale runs the whole sale in one serializable transaction:
// products are locked and validated line by line, then decremented.
// Nothing is written unless every line passes.
func (s *Store) CreateSale(ctx context.Context, draft domain.SaleDraft) (*domain.Sale, error) {
	if draft.CustomerName == "" || len(draft.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	ids := uniqueProductIDs(draft.Items)
	if len(ids) == 0 {
		return nil, store.ErrInvalidInput
	}

	productRows, err := pgTx.QueryContext(ctx, `
		SELECT id, name, price, quantity
		FROM products
		WHERE id = ANY($1)
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	productMap := make(map[string]domain.Product, len(ids))
	for productRows.Next() {
		var p domain.Product
		if err := productRows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity); err != nil {
			_ = productRows.Close()
			return nil, err
		}
		productMap[p.ID] = p
	}
	if err := productRows.Err(); err != nil {
		_ = productRows.Close()
		return nil, err
	}
	_ = productRows.Close()

	total := 0.0
	items := make([]domain.SaleItem, 0, len(draft.Items))
	decrements := make(map[string]int, len(draft.Items))
	for _, line := range draft.Items {
		if line.ProductID == "" || line.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
		product, exists := productMap[line.ProductID]
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
		res, err := pgTx.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity - $1, updated_at = now()
			WHERE id = $2 AND quantity >= $1
		`, qty, id)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("%w for %s", store.ErrInsufficientStock, productMap[id].Name)
		}
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
	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, err
	}
	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO sales (id, customer_name, items, total_amount, discount, final_amount, sale_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sale.ID, sale.CustomerName, itemsJSON, sale.TotalAmount, sale.Discount, sale.FinalAmount, sale.SaleDate)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return &sale, nil
}

// DeleteSale removes the sale and restores stock for lines whose
// product still exists. Lines for products deleted since the sale are
// skipped.
func (s *Store) DeleteSale(ctx context.Context, id string) (*domain.Sale, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	row := pgTx.QueryRowContext(ctx, `
		SELECT id, customer_name, items, total_amount, discount, final_amount, sale_date
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	for _, item := range sale.Items {
		_, err := pgTx.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity + $1, updated_at = now()
			WHERE id = $2
		`, item.Quantity, item.ProductID)
		if err != nil {
			return nil, err
		}
	}

	res, err := pgTx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) SalesStats(ctx context.Context, todayStart time.Time) (domain.SalesStats, error) {
	var stats domain.SalesStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::int,
			COALESCE(SUM(final_amount),0)::float8,
			COALESCE(SUM(CASE WHEN sale_date >= $1 THEN final_amount ELSE 0 END),0)::float8,
			COALESCE(SUM(CASE WHEN sale_date >= $1 THEN 1 ELSE 0 END),0)::int
		FROM sales
	`, todayStart).Scan(&stats.TotalSales, &stats.TotalRevenue, &stats.TodayRevenue, &stats.TodaySalesCount)
	return stats, err
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Username == "" || user.Email == "" || strings.TrimSpace(user.Password) == "" {
		return nil, store.ErrInvalidInput
	}
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (id, username, email, password, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.ID, user.Username, user.Email, user.Password, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	created := user
	return &created, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, `id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, `email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) FindUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	return s.findUser(ctx, `(username = $1 OR email = $1)`, strings.ToLower(strings.TrimSpace(login)))
}

func (s *Store) findUser(ctx context.Context, where string, value string) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password, created_at
		FROM app_users
		WHERE `+where+`
	`, value).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	var sale domain.Sale
	var itemsRaw []byte
	if err := row.Scan(&sale.ID, &sale.CustomerName, &itemsRaw, &sale.TotalAmount, &sale.Discount, &sale.FinalAmount, &sale.SaleDate); err != nil {
		return nil, err
	}
	sale.SaleDate = sale.SaleDate.UTC()
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &sale.Items); err != nil {
			return nil, err
		}
	}
	return &sale, nil
}

func uniqueProductIDs(items []domain.SaleDraftItem) []string {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if _, ok := set[item.ProductID]; ok {
			continue
		}
		set[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
