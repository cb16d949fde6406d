package models

import (
	"testing"
	"time"
)

func TestBookingStatusTransitions(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusCancelled},
	}
	all := []BookingStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestBookingStatusValid(t *testing.T) {
	if BookingStatus("canceled").Valid() {
		t.Fatalf("misspelled status must be invalid")
	}
	if !StatusCancelled.Valid() {
		t.Fatalf("cancelled must be valid")
	}
}

func TestParseRequestedDate(t *testing.T) {
	got, err := ParseRequestedDate("2025-01-01")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", got)
	}

	got, err = ParseRequestedDate("2025-01-01T15:30:00Z")
	if err != nil {
		t.Fatalf("parse rfc3339: %v", err)
	}
	if got.Hour() != 0 || got.Day() != 1 {
		t.Fatalf("expected truncation to day, got %v", got)
	}

	if _, err := ParseRequestedDate("01/01/2025"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleTaker.Valid() || !RoleProvider.Valid() {
		t.Fatalf("known roles must be valid")
	}
	if Role("admin").Valid() {
		t.Fatalf("admin is not a marketplace role")
	}
}
