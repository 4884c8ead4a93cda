package unit

// UnitStatus enumerates the states a unit can be in.
type UnitStatus string

const (
	UnitStatusPending   UnitStatus = "pending"
	UnitStatusAvailable UnitStatus = "available"
	UnitStatusPreBooked UnitStatus = "pre_booked"
	UnitStatusBooked    UnitStatus = "booked"
	UnitStatusPreHold   UnitStatus = "pre_hold"
	UnitStatusHold      UnitStatus = "hold"
	UnitStatusCompleted UnitStatus = "completed"
	UnitStatusSold      UnitStatus = "sold"
	UnitStatusCancelled UnitStatus = "cancelled"
)

// Helper methods for UnitStatus
func (us UnitStatus) String() string {
	return string(us)
}

func (us UnitStatus) IsValid() bool {
	switch us {
	case UnitStatusPending, UnitStatusAvailable, UnitStatusPreBooked, UnitStatusBooked,
		UnitStatusPreHold, UnitStatusHold, UnitStatusCompleted, UnitStatusSold, UnitStatusCancelled:
		return true
	default:
		return false
	}
}

// IsBookable returns true if a booking or holding may be opened against the unit.
func (us UnitStatus) IsBookable() bool {
	return us == UnitStatusAvailable || us == UnitStatusCancelled
}

// IsTerminal returns true once the unit has left the sales pipeline.
func (us UnitStatus) IsTerminal() bool {
	return us == UnitStatusSold
}

// GetAllUnitStatuses returns all valid unit statuses
func GetAllUnitStatuses() []UnitStatus {
	return []UnitStatus{
		UnitStatusPending,
		UnitStatusAvailable,
		UnitStatusPreBooked,
		UnitStatusBooked,
		UnitStatusPreHold,
		UnitStatusHold,
		UnitStatusCompleted,
		UnitStatusSold,
		UnitStatusCancelled,
	}
}
