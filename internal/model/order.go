package model

import (
	"time"

	"github.com/google/uuid"
)

// Channel is where an order was placed.
type Channel string

const (
	// ChannelOnline is self-service web checkout.
	ChannelOnline Channel = "ONLINE"
	// ChannelOffline is a staff point-of-sale order.
	ChannelOffline Channel = "OFFLINE"
)

// ParseChannel converts s into a Channel, rejecting unknown values.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelOnline, ChannelOffline:
		return Channel(s), nil
	}
	return "", ValidationError("loai_hoa_don", "must be ONLINE or OFFLINE")
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCash         PaymentMethod = "CASH"
)

// ParsePaymentMethod converts s into a PaymentMethod. An empty string yields
// the channel default: cash on delivery online, cash at the till offline.
func ParsePaymentMethod(s string, channel Channel) (PaymentMethod, error) {
	if s == "" {
		if channel == ChannelOffline {
			return PaymentCash, nil
		}
		return PaymentCOD, nil
	}
	switch PaymentMethod(s) {
	case PaymentCOD, PaymentBankTransfer, PaymentCash:
		return PaymentMethod(s), nil
	}
	return "", ValidationError("payment_method", "must be COD, BANK_TRANSFER or CASH")
}

// Order is an order header together with its line items.
type Order struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	Code             string        `json:"code" db:"code"`
	Channel          Channel       `json:"channel" db:"channel"`
	Status           Status        `json:"status" db:"status"`
	PaymentMethod    PaymentMethod `json:"paymentMethod" db:"payment_method"`
	CustomerID       *int64        `json:"customerId,omitempty" db:"customer_id"`
	StaffID          *int64        `json:"staffId,omitempty" db:"staff_id"`
	RecipientName    string        `json:"recipientName" db:"recipient_name"`
	RecipientPhone   string        `json:"recipientPhone" db:"recipient_phone"`
	RecipientAddress string        `json:"recipientAddress" db:"recipient_address"`
	Subtotal         int64         `json:"subtotal" db:"subtotal"`
	Discount         int64         `json:"discount" db:"discount"`
	Total            int64         `json:"total" db:"total"`
	Note             string        `json:"note" db:"note"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" db:"updated_at"`
	Items            []OrderItem   `json:"items"`
}

// OrderItem is one product line of an order, priced at the time of sale.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice int64     `json:"unitPrice" db:"unit_price"`
}

// Subtotal is quantity times the captured unit price.
func (i OrderItem) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// ItemsSubtotal sums the line subtotals.
func (o *Order) ItemsSubtotal() int64 {
	var sum int64
	for _, item := range o.Items {
		sum += item.Subtotal()
	}
	return sum
}

// SetTotals records subtotal and discount and derives the payable total.
func (o *Order) SetTotals(subtotal, discount int64) {
	o.Subtotal = subtotal
	o.Discount = discount
	o.Total = subtotal - discount
}

// Apply moves the order through the workflow. The order is left untouched
// when the action is not allowed from its current status.
func (o *Order) Apply(action Action, at time.Time) error {
	next, err := o.Status.Next(action)
	if err != nil {
		return err
	}
	o.Status = next
	o.UpdatedAt = at
	return nil
}

// AppendNote adds text to the note, separated from existing content.
func (o *Order) AppendNote(text string) {
	if o.Note == "" {
		o.Note = text
		return
	}
	o.Note = o.Note + " | " + text
}

// CartItem is one entry of a checkout cart.
type CartItem struct {
	ProductID int64 `json:"id"`
	Quantity  int   `json:"quantity"`
}

// Recipient overrides the delivery details copied from the customer.
type Recipient struct {
	Name    *string
	Phone   *string
	Address *string
}

// ClientOrderRequest is the self-service checkout payload.
type ClientOrderRequest struct {
	CartItems     []CartItem `json:"cart_items"`
	Note          string     `json:"ghi_chu,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	Name          *string    `json:"ho_ten,omitempty"`
	Phone         *string    `json:"sdt,omitempty"`
	Address       *string    `json:"dia_chi,omitempty"`
}

// StaffOrderRequest is the point-of-sale payload. The new-walk-in fields
// are used when no existing customer id is given.
type StaffOrderRequest struct {
	Channel        string     `json:"loai_hoa_don,omitempty"`
	CustomerID     *int64     `json:"khach_hang_id,omitempty"`
	RecipientName  *string    `json:"ho_ten_nguoi_nhan,omitempty"`
	RecipientPhone *string    `json:"sdt_nguoi_nhan,omitempty"`
	CartItems      []CartItem `json:"cart_items"`
	Note           *string    `json:"ghi_chu,omitempty"`
	PaymentMethod  string     `json:"payment_method,omitempty"`
	NewName        string     `json:"ho_ten_moi,omitempty"`
	NewPhone       string     `json:"sdt_moi,omitempty"`
	NewAddress     string     `json:"dia_chi_moi,omitempty"`
	NewEmail       string     `json:"email_moi,omitempty"`
}

// CancelRequest carries the optional reason for a staff cancellation.
type CancelRequest struct {
	Reason string `json:"ly_do"`
}

// PaymentInfo summarises the money of a placed order.
type PaymentInfo struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// CheckoutResponse is returned by self-service checkout.
type CheckoutResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	OrderCode   string      `json:"order_code"`
	PaymentInfo PaymentInfo `json:"payment_info"`
}

// StaffOrderResponse is the created order plus the loyalty summary of the
// attached customer, if any.
type StaffOrderResponse struct {
	*Order
	CustomerInfo *CustomerInfo `json:"customer_info,omitempty"`
}

// TransitionResponse is returned by status actions.
type TransitionResponse struct {
	Msg    string `json:"msg"`
	Status Status `json:"status"`
}

// OrderResponse is an order with the products it references and the
// customer it belongs to.
type OrderResponse struct {
	Order    *Order            `json:"order"`
	Products []Product         `json:"products"`
	Customer *CustomerResponse `json:"customer,omitempty"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Channel    *Channel
	Status     *Status
	CustomerID *int64
	// StaffID restricts OFFLINE orders to those created by this staff user.
	// ONLINE orders are always visible to staff.
	StaffID *int64
	Limit   int
	Offset  int
}
