package address

// Address types mirror how orders use them: one for shipping, one for
// billing. A user may reuse the same address for both roles.
const (
	TypeShipping = "SHIPPING"
	TypeBilling  = "BILLING"
)

type Address struct {
	AddressID   int    `json:"addressId"`
	UserID      int    `json:"userId"`
	AddressType string `json:"addressType"`
	Street      string `json:"street"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
}
