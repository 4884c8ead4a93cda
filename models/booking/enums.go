package booking

// BookingStatus enumerates the workflow states of a booking.
type BookingStatus string

const (
	BookingStatusPreBooked  BookingStatus = "pre_booked"
	BookingStatusRFPending  BookingStatus = "rf_pending"
	BookingStatusSPAPending BookingStatus = "spa_pending"
	BookingStatusCompleted  BookingStatus = "completed"
	// BookingStatusBooked marks the final state reached once the DLD
	// registration document is on file.
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Helper methods for BookingStatus
func (bs BookingStatus) String() string {
	return string(bs)
}

func (bs BookingStatus) IsValid() bool {
	switch bs {
	case BookingStatusPreBooked, BookingStatusRFPending, BookingStatusSPAPending,
		BookingStatusCompleted, BookingStatusBooked, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive returns true while the booking still occupies its unit.
func (bs BookingStatus) IsActive() bool {
	return bs != BookingStatusCancelled
}

// IsTerminal returns true once no further workflow transitions apply.
func (bs BookingStatus) IsTerminal() bool {
	return bs == BookingStatusBooked || bs == BookingStatusCancelled
}

// CanGenerateDocuments returns true if RF/SPA generation is allowed.
func (bs BookingStatus) CanGenerateDocuments() bool {
	return bs == BookingStatusRFPending || bs == BookingStatusSPAPending || bs == BookingStatusBooked
}

// GetAllBookingStatuses returns all valid booking statuses
func GetAllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusPreBooked,
		BookingStatusRFPending,
		BookingStatusSPAPending,
		BookingStatusCompleted,
		BookingStatusBooked,
		BookingStatusCancelled,
	}
}
