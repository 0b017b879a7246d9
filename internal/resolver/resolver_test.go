package resolver

import (
	"errors"
	"math"
	"testing"

	"pharmacompare/pkg/domain"
)

type fakeLookup struct {
	pharmacies map[string]string // name -> id
	medicines  map[string]string
	err        error
}

func (f *fakeLookup) FindPharmaciesByNames(names []string) ([]domain.Pharmacy, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := make([]domain.Pharmacy, 0, len(names))
	for _, name := range names {
		if id, ok := f.pharmacies[name]; ok {
			res = append(res, domain.Pharmacy{ID: id, Name: name})
		}
	}
	return res, nil
}

func (f *fakeLookup) FindMedicinesByNames(names []string) ([]domain.Medicine, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := make([]domain.Medicine, 0, len(names))
	for _, name := range names {
		if id, ok := f.medicines[name]; ok {
			res = append(res, domain.Medicine{ID: id, Name: name})
		}
	}
	return res, nil
}

func TestResolvePharmaciesPreservesInputOrder(t *testing.T) {
	r := New(&fakeLookup{pharmacies: map[string]string{"A": "id-a", "B": "id-b", "C": "id-c"}})
	ids, err := r.ResolvePharmacies([]string{"C", "A", "B"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{"id-c", "id-a", "id-b"}
	if len(ids) != len(want) {
		t.Fatalf("got %d ids, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestResolvePharmaciesDuplicateNameResolvesPerOccurrence(t *testing.T) {
	r := New(&fakeLookup{pharmacies: map[string]string{"A": "id-a"}})
	ids, err := r.ResolvePharmacies([]string{"A", "A"})
	if err != nil {
		t.Fatalf("duplicate existing name must resolve, got: %v", err)
	}
	if len(ids) != 2 || ids[0] != "id-a" || ids[1] != "id-a" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestResolvePharmaciesFailsOnMiss(t *testing.T) {
	r := New(&fakeLookup{pharmacies: map[string]string{"A": "id-a"}})
	_, err := r.ResolvePharmacies([]string{"A", "Nowhere"})
	if !errors.Is(err, ErrUnresolvableName) {
		t.Fatalf("expected ErrUnresolvableName, got %v", err)
	}
}

func TestResolvePharmaciesRejectsEmptyInput(t *testing.T) {
	r := New(&fakeLookup{})
	if _, err := r.ResolvePharmacies(nil); !errors.Is(err, ErrNoNames) {
		t.Fatalf("expected ErrNoNames, got %v", err)
	}
	if _, err := r.ResolvePharmacies([]string{"  "}); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem for blank name, got %v", err)
	}
}

func TestResolveMedicineLinksDropsMisses(t *testing.T) {
	r := New(&fakeLookup{medicines: map[string]string{"Paracetamol": "id-p"}})
	links, err := r.ResolveMedicineLinks([]MedicineItem{
		{Name: "Paracetamol", Price: 5},
		{Name: "Unknown", Price: 9},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected unknown medicine dropped, got %d links", len(links))
	}
	if links[0].MedicineID != "id-p" || links[0].Price != 5 {
		t.Fatalf("unexpected link: %+v", links[0])
	}
}

func TestResolveMedicineLinksEmptyInput(t *testing.T) {
	r := New(&fakeLookup{})
	links, err := r.ResolveMedicineLinks(nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no links, got %d", len(links))
	}
}

func TestResolveMedicineLinksRejectsBadItems(t *testing.T) {
	r := New(&fakeLookup{medicines: map[string]string{"X": "id-x"}})
	cases := []MedicineItem{
		{Name: "", Price: 1},
		{Name: "X", Price: math.NaN()},
		{Name: "X", Price: math.Inf(1)},
		{Name: "X", Price: -1},
	}
	for _, item := range cases {
		if _, err := r.ResolveMedicineLinks([]MedicineItem{item}); !errors.Is(err, ErrInvalidItem) {
			t.Fatalf("item %+v: expected ErrInvalidItem, got %v", item, err)
		}
	}
}

func TestMissPolicyOverrides(t *testing.T) {
	lookup := &fakeLookup{
		pharmacies: map[string]string{"A": "id-a"},
		medicines:  map[string]string{"X": "id-x"},
	}

	lenient := New(lookup, WithPharmacyMissPolicy(DropOnMiss))
	ids, err := lenient.ResolvePharmacies([]string{"A", "Nowhere"})
	if err != nil {
		t.Fatalf("drop policy should not fail: %v", err)
	}
	if len(ids) != 1 || ids[0] != "id-a" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	strict := New(lookup, WithMedicineMissPolicy(FailOnMiss))
	_, err = strict.ResolveMedicineLinks([]MedicineItem{{Name: "Unknown", Price: 1}})
	if !errors.Is(err, ErrUnresolvableName) {
		t.Fatalf("fail policy should reject the miss, got %v", err)
	}
}

func TestResolverPropagatesLookupErrors(t *testing.T) {
	boom := errors.New("store down")
	r := New(&fakeLookup{err: boom})
	if _, err := r.ResolvePharmacies([]string{"A"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
	if _, err := r.ResolveMedicineLinks([]MedicineItem{{Name: "X", Price: 1}}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
}
