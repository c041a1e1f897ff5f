package cart

// CartItem is one line in a user's cart: a variant and how many of it
// the user wants. Prices are not stored here; they are captured from
// the catalog at checkout time.
type CartItem struct {
	CartItemID int `json:"cartItemId"`
	VariantID  int `json:"variantId"`
	Quantity   int `json:"quantity"`
}

// Cart holds the active cart of one user (1:1). It is created lazily
// on the first add and emptied on successful checkout.
type Cart struct {
	CartID int        `json:"cartId"`
	UserID int        `json:"userId"`
	Items  []CartItem `json:"items"`
}
