package models

// Product is a catalog item. Quantity counts remaining units; BuyerID is
// advisory and records the purchaser who took the last unit, not an order
// history.
type Product struct {
	ID          int64
	Name        string
	OwnerID     int64
	Category    string
	Price       float64
	Description string
	Image       string
	Quantity    int
	BuyerID     *int64
}
