package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates accepted tenders.
type PaymentMethod string

const (
	// PaymentCash is a cash tender.
	PaymentCash PaymentMethod = "cash"
	// PaymentCard is a card tender.
	PaymentCard PaymentMethod = "card"
)

// Valid reports whether the payment method is supported.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

// Sale is the immutable header of a completed transaction.
type Sale struct {
	ID            int64               `json:"id"`
	SaleNumber    string              `json:"sale_number"`
	UserID        int64               `json:"user_id"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	TaxAmount     decimal.Decimal     `json:"tax_amount"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	PaymentMethod PaymentMethod       `json:"payment_method"`
	CashReceived  decimal.NullDecimal `json:"cash_received"`
	ChangeGiven   decimal.NullDecimal `json:"change_given"`
	PaymentID     *string             `json:"payment_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []SaleItem          `json:"items,omitempty"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ID         int64           `json:"id"`
	SaleID     int64           `json:"sale_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// ItemInput is one cart line supplied by the caller.
type ItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	// TaxRate is a fraction; nil falls back to the default rate.
	TaxRate *decimal.Decimal
}

// RecordSaleInput carries a cart and its payment details.
type RecordSaleInput struct {
	UserID        int64
	PaymentMethod PaymentMethod
	Items         []ItemInput
	CashReceived  *decimal.Decimal
	ChangeGiven   *decimal.Decimal
	PaymentID     *string
}

// SaleSummary is returned after a sale commits.
type SaleSummary struct {
	SaleID      int64           `json:"sale_id"`
	SaleNumber  string          `json:"sale_number"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}
