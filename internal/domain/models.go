package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Image    string          `json:"image,omitempty"`
	Stock    *int            `json:"stock,omitempty"`
	Status   string          `json:"status"`
}

func (p Product) IsActive() bool {
	return p.Status == "" || p.Status == ProductStatusActive
}

type ProductSaveRequest struct {
	ID       string          `json:"id"`
	Name     string          `json:"name" validate:"required,max=120"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	Category string          `json:"category" validate:"required,oneof=coffee desserts food drinks"`
	Image    string          `json:"image" validate:"omitempty,max=512"`
	Stock    *int            `json:"stock" validate:"omitempty,gte=0"`
	Status   string          `json:"status" validate:"omitempty,oneof=active draft"`
}

// CartLine is a product snapshot taken when the product enters the cart.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type CartView struct {
	Lines           []CartLine  `json:"lines"`
	ItemCount       int         `json:"item_count"`
	Totals          Totals      `json:"totals"`
	TaxRate         string      `json:"tax_rate"`
	Suggestion      *Suggestion `json:"suggestion,omitempty"`
	Analyzing       bool        `json:"analyzing"`
	CheckoutPending bool        `json:"checkout_pending"`
}

type Suggestion struct {
	UpsellSuggestion string `json:"upsell_suggestion,omitempty"`
	ThankYouNote     string `json:"thank_you_note"`
	Source           string `json:"source"`
}

type SuggestionRequest struct {
	CustomerName string
	Lines        []CartLine
	Catalog      []Product
}

type Sale struct {
	ID               string          `json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	Items            []CartLine      `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
	PaymentMethod    string          `json:"payment_method"`
	CustomerName     string          `json:"customer_name"`
	ClientID         string          `json:"client_id,omitempty"`
	AIMessage        string          `json:"ai_message"`
	UpsellSuggestion string          `json:"upsell_suggestion,omitempty"`
	CashierID        string          `json:"cashier_id,omitempty"`
	BranchName       string          `json:"branch_name,omitempty"`
}

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card transfer"`
	CustomerName  string `json:"customer_name" validate:"max=120"`
	ClientID      string `json:"client_id" validate:"max=64"`
}

// QRPaymentRequest starts a QR flow. The method is always qr.
type QRPaymentRequest struct {
	CustomerName string `json:"customer_name" validate:"max=120"`
	ClientID     string `json:"client_id" validate:"max=64"`
}

type PaymentSummary struct {
	PaymentMethod string          `json:"payment_method"`
	Transactions  int             `json:"transactions"`
	Total         decimal.Decimal `json:"total"`
}

type ZReport struct {
	TotalRevenue  decimal.Decimal  `json:"total_revenue"`
	Transactions  int              `json:"transactions"`
	AverageTicket decimal.Decimal  `json:"average_ticket"`
	ByMethod      []PaymentSummary `json:"by_method"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

type StockAdjustment struct {
	ProductID string
	Qty       int
}

type CashRegister struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BranchID   string `json:"branch_id"`
	BranchName string `json:"branch_name"`
	Status     string `json:"status"`
}

type CashRegisterSaveRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,max=80"`
	BranchID string `json:"branch_id" validate:"required"`
	// Status is optional; empty keeps the current status.
	Status string `json:"status" validate:"omitempty,oneof=open closed"`
}

type CashSession struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	UserName     string           `json:"user_name"`
	RegisterID   string           `json:"register_id"`
	RegisterName string           `json:"register_name"`
	BranchName   string           `json:"branch_name"`
	StartTime    time.Time        `json:"start_time"`
	InitialCash  decimal.Decimal  `json:"initial_cash"`
	EndTime      *time.Time       `json:"end_time,omitempty"`
	FinalCash    *decimal.Decimal `json:"final_cash,omitempty"`
	ExpectedCash *decimal.Decimal `json:"expected_cash,omitempty"`
	Variance     *decimal.Decimal `json:"variance,omitempty"`
	Status       string           `json:"status"`
	Notes        string           `json:"notes,omitempty"`
}

type SessionOpenRequest struct {
	RegisterID  string          `json:"register_id" validate:"required"`
	InitialCash decimal.Decimal `json:"initial_cash" validate:"gte=0"`
	Notes       string          `json:"notes" validate:"max=500"`
}

type SessionCloseRequest struct {
	FinalCash decimal.Decimal `json:"final_cash" validate:"gte=0"`
}

type Branch struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Active  bool   `json:"active"`
}

type BranchSaveRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name" validate:"required,max=80"`
	Address string `json:"address" validate:"max=200"`
	Phone   string `json:"phone" validate:"max=40"`
	Active  *bool  `json:"active"`
}

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	TaxID     string    `json:"tax_id,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ClientSaveRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=40"`
	TaxID   string `json:"tax_id" validate:"max=40"`
	Address string `json:"address" validate:"max=200"`
}

// User is both the back-office record and the credential store entry.
// Password always holds a bcrypt hash once persisted.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type UserSaveRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,max=120"`
	Username string `json:"username" validate:"required,min=3,max=40"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin cashier"`
	Active   *bool  `json:"active"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Branch   string `json:"branch"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Branch      string `json:"branch,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	UserID   string
	Username string
	Name     string
	Role     string
	Branch   string
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentQR       = "qr"
)

// PaymentMethods lists the supported methods in Z-report order.
var PaymentMethods = []string{PaymentCash, PaymentCard, PaymentTransfer, PaymentQR}

const (
	ProductStatusActive = "active"
	ProductStatusDraft  = "draft"
)

const (
	CategoryCoffee   = "coffee"
	CategoryDesserts = "desserts"
	CategoryFood     = "food"
	CategoryDrinks   = "drinks"
)

const (
	RegisterStatusOpen   = "open"
	RegisterStatusClosed = "closed"
)

const (
	SessionStatusOpen   = "open"
	SessionStatusClosed = "closed"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const (
	SuggestionSourceGemini   = "gemini"
	SuggestionSourceLocal    = "local"
	SuggestionSourceFallback = "fallback"
)

const DefaultCustomerName = "Walk-in Customer"

// CustomerOrDefault trims name and substitutes the walk-in label when empty.
func CustomerOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultCustomerName
	}
	return name
}

// FallbackThankYouNote is used whenever no generated note is available.
func FallbackThankYouNote(customer string) string {
	return fmt.Sprintf("Thank you for your purchase, %s!", CustomerOrDefault(customer))
}
