package domain

// TableStatus is the occupancy status of a table.
type TableStatus string

const (
	// TableAvailable is free for new guests.
	TableAvailable TableStatus = "available"
	// TableOccupied has guests seated.
	TableOccupied TableStatus = "occupied"
	// TableReserved is held for a booking.
	TableReserved TableStatus = "reserved"
)

// ParseTableStatus parses a table status name.
func ParseTableStatus(s string) (TableStatus, error) {
	switch st := TableStatus(s); st {
	case TableAvailable, TableOccupied, TableReserved:
		return st, nil
	default:
		return "", Tag(ErrInvalidTableStatus, "status", s)
	}
}

// Table is a dining table of an outlet.
type Table struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Capacity         int         `json:"capacity"`
	Status           TableStatus `json:"status"`
	ActiveOrderCount int         `json:"active_order_count"`
}

// Identity returns the table id.
func (t Table) Identity() int64 {
	return t.ID
}
