package domain

type MenuItem struct {
	ID    string
	Name  string
	Price float64
	Image string
}

// CartItem is a line of the customer's unsubmitted cart.
type CartItem struct {
	Item     MenuItem
	Quantity int
}
