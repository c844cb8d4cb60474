package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

const SeatCount = 80

// Ledger is the viewer's copy of the seat map. It stays unloaded until the
// first successful Load and is only ever changed from booking service answers.
type Ledger struct {
	seats     []bool
	allocated []int
}

// Reconciliation compares the locally recomputed occupied count with the
// count reported by the booking service.
type Reconciliation struct {
	Occupied int
	Hint     int
	HasHint  bool
}

func (r Reconciliation) Drifted() bool {
	return r.HasHint && r.Hint != r.Occupied
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Loaded() bool {
	return l.seats != nil
}

// Load replaces the seat vector with the given occupied seat numbers.
func (l *Ledger) Load(seatNumbers []int) error {
	if err := checkSeatNumbers(seatNumbers); err != nil {
		return err
	}

	seats := make([]bool, SeatCount)
	for _, n := range seatNumbers {
		seats[n-1] = true
	}

	l.seats = seats
	l.allocated = nil

	return nil
}

// Apply marks the allocated seats of result as occupied. Seats that are
// already occupied stay occupied. The occupied count is recomputed from the
// vector; a server hint is only compared against it.
func (l *Ledger) Apply(result BookingResult) (Reconciliation, error) {
	if !l.Loaded() {
		return Reconciliation{}, ErrLedgerNotLoaded
	}

	if err := checkSeatNumbers(result.AllocatedSeats); err != nil {
		return Reconciliation{}, err
	}

	for _, n := range result.AllocatedSeats {
		l.seats[n-1] = true
	}

	l.allocated = slices.Clone(result.AllocatedSeats)

	rec := Reconciliation{Occupied: l.Occupied()}
	if result.BookedCount != nil {
		rec.Hint = *result.BookedCount
		rec.HasHint = true
	}

	return rec, nil
}

// Clear marks every seat available. Callers invoke it only after the booking
// service confirmed the reset.
func (l *Ledger) Clear() {
	l.seats = make([]bool, SeatCount)
	l.allocated = nil
}

// Seats returns a copy of the occupancy vector; index i is seat i+1.
func (l *Ledger) Seats() []bool {
	return slices.Clone(l.seats)
}

func (l *Ledger) Allocated() []int {
	return slices.Clone(l.allocated)
}

func (l *Ledger) Occupied() int {
	count := 0
	for _, occupied := range l.seats {
		if occupied {
			count++
		}
	}

	return count
}

// Available is zero until the ledger is loaded.
func (l *Ledger) Available() int {
	if !l.Loaded() {
		return 0
	}

	return SeatCount - l.Occupied()
}

type ledgerState struct {
	Seats     []bool `json:"seats"`
	Allocated []int  `json:"allocated,omitempty"`
}

func (l *Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(ledgerState{Seats: l.seats, Allocated: l.allocated})
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var state ledgerState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	if state.Seats != nil && len(state.Seats) != SeatCount {
		return fmt.Errorf("ledger has %d seats, want %d", len(state.Seats), SeatCount)
	}

	if err := checkSeatNumbers(state.Allocated); err != nil {
		return err
	}

	l.seats = state.Seats
	l.allocated = state.Allocated

	return nil
}

func checkSeatNumbers(seatNumbers []int) error {
	for _, n := range seatNumbers {
		if n < 1 || n > SeatCount {
			return fmt.Errorf("%w: %d", ErrInvalidSeatNumber, n)
		}
	}

	return nil
}
