package account

import (
	"github.com/shopspring/decimal"
	"github.com/tamasbrandstadter/bank-api/cmd/api/customer"
)

type CreateRequest struct {
	Type      Type              `json:"accountType" validate:"required,oneof=SAVING CURRENT JOINT"`
	Balance   *decimal.Decimal  `json:"balance" validate:"required,scale=4"`
	Customers []customer.Fields `json:"customers" validate:"required,dive"`
}

// NewCustomers turns the request payload into unsaved customers.
func (r CreateRequest) NewCustomers() []customer.Customer {
	cs := make([]customer.Customer, 0, len(r.Customers))
	for _, f := range r.Customers {
		cs = append(cs, customer.Customer{
			FirstName: f.FirstName,
			LastName:  f.LastName,
			Email:     f.Email,
		})
	}
	return cs
}
