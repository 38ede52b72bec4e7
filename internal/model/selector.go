package model

// CustomerSelector says which customer an order is placed for. It is one of
// ExistingCustomer, WalkIn or Guest.
type CustomerSelector interface {
	customerSelector()
}

// ExistingCustomer attaches the order to a known customer.
type ExistingCustomer struct {
	ID int64
}

// WalkIn attaches the order to the customer with this phone number,
// creating one if none exists.
type WalkIn struct {
	Name    string
	Phone   string
	Address string
	Email   string
}

// Guest places the order without a loyalty customer.
type Guest struct{}

func (ExistingCustomer) customerSelector() {}
func (WalkIn) customerSelector()           {}
func (Guest) customerSelector()            {}
