package models

// Rating is one user's score for one product, unique per
// (ProductID, UserID). Re-rating overwrites the stored value.
type Rating struct {
	ID        int64
	ProductID int64
	UserID    int64
	Rating    int
}
