package status

import (
	"errors"
	"testing"

	"property-sales/domainerr"

	"github.com/stretchr/testify/require"
)

func TestUnitTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{"pending", "available", true},
		{"pending", "cancelled", true},
		{"pending", "booked", false},
		{"available", "pre_booked", true},
		{"available", "pre_hold", true},
		{"available", "sold", false},
		{"cancelled", "pre_booked", true},
		{"cancelled", "pre_hold", true},
		{"pre_hold", "hold", true},
		{"pre_hold", "available", true},
		{"hold", "available", true},
		{"pre_booked", "booked", true},
		{"pre_booked", "available", false},
		{"booked", "completed", true},
		{"completed", "sold", true},
		{"sold", "available", false},
	}

	for _, tc := range cases {
		if got := CanTransition(EntityUnit, tc.from, tc.to); got != tc.ok {
			t.Errorf("unit %s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestBookingTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{"pre_booked", "rf_pending", true},
		{"pre_booked", "cancelled", true},
		{"rf_pending", "spa_pending", true},
		{"rf_pending", "completed", false},
		{"spa_pending", "completed", true},
		{"completed", "booked", true},
		{"booked", "cancelled", false},
		{"cancelled", "pre_booked", false},
	}

	for _, tc := range cases {
		if got := CanTransition(EntityBooking, tc.from, tc.to); got != tc.ok {
			t.Errorf("booking %s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestDocumentTransitionsNeverSkipSigned(t *testing.T) {
	for _, entity := range []EntityType{EntityReservationForm, EntitySPA} {
		require.True(t, CanTransition(entity, "pending", "signed"))
		require.True(t, CanTransition(entity, "signed", "approved"))
		require.False(t, CanTransition(entity, "pending", "approved"))
		require.False(t, CanTransition(entity, "approved", "pending"))
	}
}

func TestEnsureReturnsTypedError(t *testing.T) {
	err := Ensure(EntityHolding, "hold", "pre_hold")
	require.Error(t, err)

	var invalid *domainerr.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, "holding", invalid.Entity)
	require.Equal(t, "hold", invalid.From)
	require.Equal(t, "pre_hold", invalid.To)

	require.NoError(t, Ensure(EntityHolding, "hold", "processed"))
}

func TestAllowedTargetsReturnsCopy(t *testing.T) {
	targets := AllowedTargets(EntityUnit, "available")
	require.True(t, targets["pre_booked"])

	targets["sold"] = true
	require.False(t, CanTransition(EntityUnit, "available", "sold"))
}

func TestUnknownStatusHasNoTargets(t *testing.T) {
	require.False(t, CanTransition(EntityUnit, "nonsense", "available"))
	require.Empty(t, AllowedTargets(EntityBooking, "booked"))
}
