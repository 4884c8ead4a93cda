package status

import (
	"property-sales/domainerr"
	bookingModel "property-sales/models/booking"
	documentModel "property-sales/models/document"
	holdingModel "property-sales/models/holding"
	unitModel "property-sales/models/unit"
)

// EntityType names the entity kinds whose status transitions the registry
// governs.
type EntityType string

const (
	EntityUnit            EntityType = "unit"
	EntityBooking         EntityType = "booking"
	EntityHolding         EntityType = "holding"
	EntityReservationForm EntityType = "reservation_form"
	EntitySPA             EntityType = "spa"
)

// transitions is the single source of truth for legal status changes. Every
// component consults the registry before mutating a status; soft delete is an
// orthogonal flag and never appears here.
var transitions = map[EntityType]map[string][]string{
	EntityUnit: {
		unitModel.UnitStatusPending.String(): {
			unitModel.UnitStatusAvailable.String(),
			unitModel.UnitStatusCancelled.String(),
		},
		unitModel.UnitStatusAvailable.String(): {
			unitModel.UnitStatusPreBooked.String(),
			unitModel.UnitStatusPreHold.String(),
			unitModel.UnitStatusCancelled.String(),
		},
		unitModel.UnitStatusCancelled.String(): {
			unitModel.UnitStatusPreBooked.String(),
			unitModel.UnitStatusPreHold.String(),
		},
		unitModel.UnitStatusPreHold.String(): {
			unitModel.UnitStatusHold.String(),
			unitModel.UnitStatusAvailable.String(),
			unitModel.UnitStatusCancelled.String(),
		},
		unitModel.UnitStatusHold.String(): {
			unitModel.UnitStatusAvailable.String(),
			unitModel.UnitStatusCancelled.String(),
		},
		unitModel.UnitStatusPreBooked.String(): {
			unitModel.UnitStatusBooked.String(),
			unitModel.UnitStatusCancelled.String(),
		},
		unitModel.UnitStatusBooked.String(): {
			unitModel.UnitStatusCompleted.String(),
			unitModel.UnitStatusCancelled.String(),
		},
		unitModel.UnitStatusCompleted.String(): {
			unitModel.UnitStatusSold.String(),
		},
	},
	EntityBooking: {
		bookingModel.BookingStatusPreBooked.String(): {
			bookingModel.BookingStatusRFPending.String(),
			bookingModel.BookingStatusSPAPending.String(),
			bookingModel.BookingStatusBooked.String(),
			bookingModel.BookingStatusCancelled.String(),
		},
		bookingModel.BookingStatusRFPending.String(): {
			bookingModel.BookingStatusSPAPending.String(),
			bookingModel.BookingStatusCancelled.String(),
		},
		bookingModel.BookingStatusSPAPending.String(): {
			bookingModel.BookingStatusCompleted.String(),
			bookingModel.BookingStatusCancelled.String(),
		},
		// Completed is terminal pending the DLD upload marker.
		bookingModel.BookingStatusCompleted.String(): {
			bookingModel.BookingStatusBooked.String(),
		},
	},
	EntityHolding: {
		holdingModel.HoldingStatusPreHold.String(): {
			holdingModel.HoldingStatusHold.String(),
			holdingModel.HoldingStatusRejected.String(),
		},
		holdingModel.HoldingStatusHold.String(): {
			holdingModel.HoldingStatusProcessed.String(),
			holdingModel.HoldingStatusCancelled.String(),
		},
	},
	EntityReservationForm: {
		documentModel.DocumentStatusPending.String(): {
			documentModel.DocumentStatusSigned.String(),
		},
		documentModel.DocumentStatusSigned.String(): {
			documentModel.DocumentStatusApproved.String(),
		},
	},
	EntitySPA: {
		documentModel.DocumentStatusPending.String(): {
			documentModel.DocumentStatusSigned.String(),
		},
		documentModel.DocumentStatusSigned.String(): {
			documentModel.DocumentStatusApproved.String(),
		},
	},
}

// CanTransition reports whether moving entityType from current to target is
// legal.
func CanTransition(entityType EntityType, current, target string) bool {
	targets, ok := transitions[entityType][current]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == target {
			return true
		}
	}
	return false
}

// AllowedTargets returns the set of statuses reachable from current. The
// returned map is a copy; callers may mutate it.
func AllowedTargets(entityType EntityType, current string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range transitions[entityType][current] {
		out[t] = true
	}
	return out
}

// Ensure validates a transition and returns a typed error carrying the
// attempted pair when it is illegal.
func Ensure(entityType EntityType, current, target string) error {
	if !CanTransition(entityType, current, target) {
		return &domainerr.InvalidTransitionError{
			Entity: string(entityType),
			From:   current,
			To:     target,
		}
	}
	return nil
}
