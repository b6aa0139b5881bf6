package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProductCreateRequest struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Quantity    int      `json:"quantity"`
	Description string   `json:"description"`
}

type ProductUpdateRequest struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Description *string  `json:"description,omitempty"`
}

type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	JobTitle  string    `json:"jobTitle"`
	Salary    float64   `json:"salary"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type EmployeeCreateRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	JobTitle string   `json:"jobTitle"`
	Salary   *float64 `json:"salary"`
}

type EmployeeUpdateRequest struct {
	Name     *string  `json:"name,omitempty"`
	Email    *string  `json:"email,omitempty"`
	JobTitle *string  `json:"jobTitle,omitempty"`
	Salary   *float64 `json:"salary,omitempty"`
	Status   *string  `json:"status,omitempty"`
}

type EmployeeStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// Salary is one aggregate payroll run for a month, not a per-employee
// record. Per-employee amounts are folded into TotalAmount at process
// time.
type Salary struct {
	ID            string    `json:"id"`
	Month         string    `json:"month"`
	TotalAmount   float64   `json:"totalAmount"`
	ProcessedDate time.Time `json:"processedDate"`
	EmployeeCount int       `json:"employeeCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type SalaryCreateRequest struct {
	Month         string   `json:"month"`
	TotalAmount   *float64 `json:"totalAmount"`
	ProcessedDate string   `json:"processedDate,omitempty"`
	EmployeeCount *int     `json:"employeeCount,omitempty"`
}

type SalaryUpdateRequest struct {
	Month         *string  `json:"month,omitempty"`
	TotalAmount   *float64 `json:"totalAmount,omitempty"`
	ProcessedDate *string  `json:"processedDate,omitempty"`
	EmployeeCount *int     `json:"employeeCount,omitempty"`
}

type SalaryProcessEntry struct {
	EmployeeID string  `json:"employeeId"`
	Amount     float64 `json:"amount"`
}

type SalaryProcessRequest struct {
	Month    string               `json:"month"`
	Salaries []SalaryProcessEntry `json:"salaries"`
}

type SalaryAdjustmentRequest struct {
	Type   string   `json:"type"`
	Amount *float64 `json:"amount"`
	Reason string   `json:"reason"`
}

type Expense struct {
	ID          string    `json:"id"`
	Purpose     string    `json:"purpose"`
	Amount      float64   `json:"amount"`
	ExpenseDate time.Time `json:"expenseDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ExpenseCreateRequest struct {
	Purpose     string   `json:"purpose"`
	Amount      *float64 `json:"amount"`
	ExpenseDate string   `json:"expenseDate,omitempty"`
}

type ExpenseStats struct {
	TotalExpenses     int     `json:"totalExpenses"`
	TotalAmount       float64 `json:"totalAmount"`
	TodayAmount       float64 `json:"todayAmount"`
	TodayExpenseCount int     `json:"todayExpensesCount"`
}

// SaleItem is one sold line frozen at sale time. Price is the unit
// price actually charged, which may differ from the catalog price when
// the request carried an override.
type SaleItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

type Sale struct {
	ID           string     `json:"id"`
	CustomerName string     `json:"customerName"`
	Items        []SaleItem `json:"items"`
	TotalAmount  float64    `json:"totalAmount"`
	Discount     float64    `json:"discount"`
	FinalAmount  float64    `json:"finalAmount"`
	SaleDate     time.Time  `json:"saleDate"`
}

// SaleDraftItem is one requested line before product lookup. A zero
// Price means "charge the catalog price".
type SaleDraftItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
}

// SaleDraft is a validated create-sale request handed to the store. The
// store resolves products, snapshots names and prices, and applies the
// stock decrements in one atomic step.
type SaleDraft struct {
	CustomerName string
	Items        []SaleDraftItem
	Discount     float64
}

type SaleCreateRequest struct {
	CustomerName string          `json:"customerName"`
	Items        []SaleDraftItem `json:"items"`
	Discount     float64         `json:"discount"`
}

type SalesStats struct {
	TotalSales      int     `json:"totalSales"`
	TotalRevenue    float64 `json:"totalRevenue"`
	TodayRevenue    float64 `json:"todayRevenue"`
	TodaySalesCount int     `json:"todaySalesCount"`
}

type ActivityEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Action      string    `json:"action"`
	Item        string    `json:"item"`
	Amount      float64   `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

type DashboardData struct {
	TotalProducts        int             `json:"totalProducts"`
	TotalProductQuantity int             `json:"totalProductQuantity"`
	TotalProductValue    float64         `json:"totalProductValue"`
	TotalEmployees       int             `json:"totalEmployees"`
	ActiveEmployees      int             `json:"activeEmployees"`
	TotalSalaries        int             `json:"totalSalaries"`
	CurrentMonthSalary   float64         `json:"currentMonthSalary"`
	TotalSalaryExpenses  float64         `json:"totalSalaryExpenses"`
	RecentActivity       []ActivityEntry `json:"recentActivity"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SendOTPRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Actor is the authenticated principal carried through request context.
type Actor struct {
	UserID   string
	Username string
	Email    string
}

// User is an internal persistence model for auth credentials. Password
// holds a bcrypt hash and never leaves the server.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	EmployeeStatusActive   = "Active"
	EmployeeStatusInactive = "Inactive"
)

const (
	SalaryAdjustmentBonus     = "bonus"
	SalaryAdjustmentDeduction = "deduction"
	SalaryAdjustmentRaise     = "raise"
)
