package sales

import "github.com/shopspring/decimal"

// RecordSaleRequest is the JSON body of POST /sales.
type RecordSaleRequest struct {
	UserID        int64             `json:"user_id" validate:"required,gt=0"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	CashReceived  *decimal.Decimal  `json:"cash_received,omitempty"`
	ChangeGiven   *decimal.Decimal  `json:"change_given,omitempty"`
	PaymentID     *string           `json:"payment_id,omitempty" validate:"omitempty,max=128"`
}

// SaleItemRequest is one cart line in RecordSaleRequest.
type SaleItemRequest struct {
	ProductID int64            `json:"product_id" validate:"required,gt=0"`
	Quantity  *decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"required"`
	TaxRate   *decimal.Decimal `json:"tax_rate,omitempty"`
}

// ToInput converts the request into the service input.
func (r RecordSaleRequest) ToInput() RecordSaleInput {
	items := make([]ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		item := ItemInput{ProductID: it.ProductID, TaxRate: it.TaxRate}
		if it.Quantity != nil {
			item.Quantity = *it.Quantity
		}
		if it.UnitPrice != nil {
			item.UnitPrice = *it.UnitPrice
		}
		items = append(items, item)
	}
	return RecordSaleInput{
		UserID:        r.UserID,
		PaymentMethod: PaymentMethod(r.PaymentMethod),
		Items:         items,
		CashReceived:  r.CashReceived,
		ChangeGiven:   r.ChangeGiven,
		PaymentID:     r.PaymentID,
	}
}
