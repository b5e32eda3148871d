package domain_test

import (
	"testing"

	"github.com/Zeecoworld/google-stuff/internal/domain"
)

func TestNewBusiness_Defaults(t *testing.T) {
	b := domain.NewBusiness()
	if b.Name != "Unknown" || b.Address != "No Address" || b.Website != "No Website" || b.PhoneNumber != "No Phone" {
		t.Fatalf("unexpected defaults: %+v", b)
	}
	if b.ReviewsCount != 0 || b.ReviewsAverage != 0 {
		t.Fatalf("review defaults should be zero: %+v", b)
	}
	if b.Latitude != nil || b.Longitude != nil {
		t.Fatalf("coordinates should be unset by default")
	}
}

func TestResultSet_RejectsDuplicateIdentity(t *testing.T) {
	set := domain.NewResultSet()

	a := domain.NewBusiness()
	a.Name = "Joe's Pizza"
	a.Address = "1 Main St"
	a.PhoneNumber = "555-0100"
	a.ReviewsAverage = 4.5

	// Same identity, different rating: must still be rejected.
	dup := a
	dup.ReviewsAverage = 3.0

	if !set.Add(a) {
		t.Fatalf("first insert rejected")
	}
	if set.Add(dup) {
		t.Fatalf("duplicate identity accepted")
	}
	if set.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", set.Len())
	}
}

func TestResultSet_PreservesInsertionOrder(t *testing.T) {
	set := domain.NewResultSet()
	names := []string{"Alpha", "Bravo", "Charlie"}
	for _, n := range names {
		b := domain.NewBusiness()
		b.Name = n
		if !set.Add(b) {
			t.Fatalf("insert %s rejected", n)
		}
	}
	items := set.Items()
	for i, n := range names {
		if items[i].Name != n {
			t.Fatalf("position %d: want %s, got %s", i, n, items[i].Name)
		}
	}
}

func TestResultSet_DifferentPhoneIsDifferentIdentity(t *testing.T) {
	set := domain.NewResultSet()
	a := domain.NewBusiness()
	a.Name = "Clinic"
	b := a
	b.PhoneNumber = "555-0199"

	if !set.Add(a) || !set.Add(b) {
		t.Fatalf("records with distinct phones should both be accepted")
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", set.Len())
	}
}
