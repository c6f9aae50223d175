package domain

import (
	"encoding/json"
	"time"
)

// Shift is a cashier session. It is opened once, grows additively as orders complete under it,
// and is immutable after it has been closed.
type Shift struct {
	ID                int64      `json:"id"`
	OpenedAt          time.Time  `json:"opened_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	OpeningBalance    Money      `json:"opening_balance"`
	ExpectedTotal     Money      `json:"expected_total"`
	TotalTransactions int        `json:"total_transactions"`
	IsActive          bool       `json:"is_active"`
}

// OpenShift starts a shift with the given opening balance.
func OpenShift(id int64, openedAt time.Time, openingBalance Money) Shift {
	return Shift{
		ID:             id,
		OpenedAt:       openedAt,
		OpeningBalance: openingBalance,
		ExpectedTotal:  openingBalance,
		IsActive:       true,
	}
}

// RecordCompleted adds a completed order to the running totals.
func (s Shift) RecordCompleted(o Order) (Shift, error) {
	if !s.IsActive {
		return s, Tag(ErrShiftClosed, "shift_id", s.ID)
	}
	if o.Status != OrderCompleted {
		err := Tag(ErrInvalidTransition, "order_id", o.ID)
		return s, Tag(err, "status", string(o.Status))
	}
	s.ExpectedTotal += o.Total
	s.TotalTransactions++
	return s, nil
}

// ShiftTotals sums the completed orders attributed to shiftID.
func ShiftTotals(shiftID int64, orders []Order) (count int, total Money) {
	for _, o := range orders {
		if o.Status != OrderCompleted || o.ShiftID == nil || *o.ShiftID != shiftID {
			continue
		}
		count++
		total += o.Total
	}
	return count, total
}

// Close closes the shift at now after checking its running totals against the completed orders.
// A shift whose totals disagree with completed is left open and ErrShiftMismatch is returned.
func (s Shift) Close(now time.Time, completed []Order) (Shift, error) {
	if !s.IsActive {
		return s, Tag(ErrShiftClosed, "shift_id", s.ID)
	}
	count, total := ShiftTotals(s.ID, completed)
	if count != s.TotalTransactions || s.OpeningBalance+total != s.ExpectedTotal {
		err := Tag(ErrShiftMismatch, "shift_id", s.ID)
		err = Tag(err, "expected_total", s.ExpectedTotal.String())
		return s, Tag(err, "computed_total", (s.OpeningBalance + total).String())
	}
	closedAt := now
	s.ClosedAt = &closedAt
	s.IsActive = false
	return s, nil
}

type shiftWire struct {
	ID                int64      `json:"id"`
	OpenedAt          time.Time  `json:"opened_at"`
	ClosedAt          *time.Time `json:"closed_at"`
	OpeningBalance    Money      `json:"opening_balance"`
	ExpectedTotal     Money      `json:"expected_total"`
	TotalTransactions int        `json:"total_transactions"`
	IsActive          *bool      `json:"is_active"`
	Status            string     `json:"status"`
}

// UnmarshalJSON derives IsActive from the backend's "status" column when "is_active" is absent.
func (s *Shift) UnmarshalJSON(data []byte) error {
	var w shiftWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	active := w.Status == "open" || (w.Status == "" && w.ClosedAt == nil)
	if w.IsActive != nil {
		active = *w.IsActive
	}
	*s = Shift{
		ID:                w.ID,
		OpenedAt:          w.OpenedAt,
		ClosedAt:          w.ClosedAt,
		OpeningBalance:    w.OpeningBalance,
		ExpectedTotal:     w.ExpectedTotal,
		TotalTransactions: w.TotalTransactions,
		IsActive:          active,
	}
	return nil
}
