package app

import (
	"errors"
	"testing"

	"pharmacompare/internal/resolver"
)

func floatPtr(f float64) *float64 { return &f }

func TestCreateMedicineLinksAllNamedPharmacies(t *testing.T) {
	a := newTestApp(t)
	for _, p := range []CreatePharmacyInput{
		{Name: "HealthPlus", Address: "123 Main Street"},
		{Name: "CarePoint", Address: "9 Side Street"},
	} {
		if _, err := a.CreatePharmacy(p); err != nil {
			t.Fatalf("create pharmacy %s: %v", p.Name, err)
		}
	}

	med, err := a.CreateMedicine(CreateMedicineInput{
		Name:        "Ibuprofen",
		Description: "Anti-inflammatory",
		Price:       floatPtr(7.5),
		Pharmacies:  []string{"HealthPlus", "CarePoint"},
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	if len(med.PharmacyRefs) != 2 {
		t.Fatalf("pharmacyRefs cardinality %d, want 2", len(med.PharmacyRefs))
	}

	pharmacies, err := a.store.ListPharmacies()
	if err != nil {
		t.Fatalf("list pharmacies: %v", err)
	}
	for _, p := range pharmacies {
		if len(p.MedicineLinks) != 1 {
			t.Fatalf("pharmacy %s should gain exactly one link, got %d", p.Name, len(p.MedicineLinks))
		}
		link := p.MedicineLinks[0]
		if link.MedicineID != med.ID || link.Price != 7.5 {
			t.Fatalf("unexpected link on %s: %+v", p.Name, link)
		}
	}
}

func TestCreateMedicineUnknownPharmacyFailsWithoutSideEffects(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.CreatePharmacy(CreatePharmacyInput{Name: "A", Address: "1 St"}); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}

	_, err := a.CreateMedicine(CreateMedicineInput{
		Name:        "Ghost",
		Description: "Never created",
		Pharmacies:  []string{"A", "Nowhere"},
	})
	if !errors.Is(err, resolver.ErrUnresolvableName) {
		t.Fatalf("expected ErrUnresolvableName, got %v", err)
	}

	medicines, err := a.SearchMedicines("")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(medicines) != 0 {
		t.Fatalf("no medicine should be created, got %d", len(medicines))
	}
	pharmacies, err := a.store.ListPharmacies()
	if err != nil {
		t.Fatalf("list pharmacies: %v", err)
	}
	if len(pharmacies[0].MedicineLinks) != 0 {
		t.Fatalf("no link should be applied, got %+v", pharmacies[0].MedicineLinks)
	}
}

func TestCreateMedicineDuplicatePharmacyNameResolves(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.CreatePharmacy(CreatePharmacyInput{Name: "A", Address: "1 St"}); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}
	med, err := a.CreateMedicine(CreateMedicineInput{
		Name:        "Aspirin",
		Description: "d",
		Pharmacies:  []string{"A", "A"},
	})
	if err != nil {
		t.Fatalf("duplicate existing name must resolve, got: %v", err)
	}
	if len(med.PharmacyRefs) != 2 {
		t.Fatalf("one ref per occurrence, got %d", len(med.PharmacyRefs))
	}
}

func TestCreateMedicineValidation(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.CreateMedicine(CreateMedicineInput{Name: "X"}); !errors.Is(err, ErrMedicineFieldsRequired) {
		t.Fatalf("expected ErrMedicineFieldsRequired, got %v", err)
	}
	if _, err := a.CreateMedicine(CreateMedicineInput{
		Name: "X", Description: "d", Price: floatPtr(-1), Pharmacies: []string{"A"},
	}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestCreatePharmacyDropsUnknownMedicines(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.CreatePharmacy(CreatePharmacyInput{Name: "Seed", Address: "1 St"}); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}
	if _, err := a.CreateMedicine(CreateMedicineInput{
		Name: "Paracetamol", Description: "d", Pharmacies: []string{"Seed"},
	}); err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	// Unlike the medicine side, an unknown medicine name does not fail the
	// request; it is dropped from the stored links.
	pharmacy, err := a.CreatePharmacy(CreatePharmacyInput{
		Name:    "HealthPlus",
		Address: "123 Main Street",
		Medicines: []resolver.MedicineItem{
			{Name: "Paracetamol", Price: 20},
			{Name: "Unknown", Price: 5},
		},
	})
	if err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}
	if len(pharmacy.MedicineLinks) != 1 {
		t.Fatalf("unknown medicine should be dropped, got %d links", len(pharmacy.MedicineLinks))
	}
	if pharmacy.MedicineLinks[0].Price != 20 {
		t.Fatalf("unexpected link price: %v", pharmacy.MedicineLinks[0].Price)
	}
}

func TestCreatePharmacyConflictAndValidation(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.CreatePharmacy(CreatePharmacyInput{Name: "A", Address: ""}); !errors.Is(err, ErrPharmacyFieldsRequired) {
		t.Fatalf("expected ErrPharmacyFieldsRequired, got %v", err)
	}
	if _, err := a.CreatePharmacy(CreatePharmacyInput{Name: "A", Address: "1 St"}); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}
	if _, err := a.CreatePharmacy(CreatePharmacyInput{Name: "A", Address: "2 St"}); !errors.Is(err, ErrPharmacyExists) {
		t.Fatalf("expected ErrPharmacyExists, got %v", err)
	}
}

func TestSearchMedicinesCaseInsensitiveSubstring(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.CreatePharmacy(CreatePharmacyInput{Name: "A", Address: "1 St"}); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}
	for _, name := range []string{"Paracetamol", "Ibuprofen"} {
		if _, err := a.CreateMedicine(CreateMedicineInput{
			Name: name, Description: "d", Pharmacies: []string{"A"},
		}); err != nil {
			t.Fatalf("create medicine %s: %v", name, err)
		}
	}

	all, err := a.SearchMedicines("")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("empty query should list all, got %d", len(all))
	}

	hits, err := a.SearchMedicines("PARACET")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "Paracetamol" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if len(hits[0].Pharmacies) != 1 || hits[0].Pharmacies[0].Name != "A" {
		t.Fatalf("pharmacies should be expanded to summaries: %+v", hits[0].Pharmacies)
	}
}

func TestGetMedicineExpandsPharmacies(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.CreatePharmacy(CreatePharmacyInput{Name: "A", Address: "1 St"}); err != nil {
		t.Fatalf("create pharmacy: %v", err)
	}
	med, err := a.CreateMedicine(CreateMedicineInput{
		Name: "M", Description: "d", Price: floatPtr(5), Pharmacies: []string{"A"},
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	view, err := a.GetMedicine(med.ID)
	if err != nil {
		t.Fatalf("get medicine: %v", err)
	}
	if len(view.Pharmacies) != 1 || view.Pharmacies[0].Name != "A" || view.Pharmacies[0].Address != "1 St" {
		t.Fatalf("unexpected pharmacy summaries: %+v", view.Pharmacies)
	}

	if _, err := a.GetMedicine("missing-id"); !errors.Is(err, ErrMedicineNotFound) {
		t.Fatalf("expected ErrMedicineNotFound, got %v", err)
	}
}
