// Package resolver translates human-readable catalog names into durable store
// identifiers. It is the trust boundary between caller-supplied cross
// references and the records they end up linked to, so it stays free of
// persistence side effects: callers inject a lookup capability and apply the
// resolved identifiers themselves.
package resolver

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"pharmacompare/pkg/domain"
)

// MissPolicy decides what happens when a requested name has no match.
type MissPolicy int

const (
	// FailOnMiss rejects the whole request when any name is unresolvable.
	FailOnMiss MissPolicy = iota
	// DropOnMiss silently omits unresolvable names from the output.
	DropOnMiss
)

var (
	// ErrNoNames is returned when a resolution request names nothing.
	ErrNoNames = errors.New("no names to resolve")
	// ErrUnresolvableName is returned under FailOnMiss when a name has no match.
	ErrUnresolvableName = errors.New("unresolvable name")
	// ErrInvalidItem is returned when a resolution input fails validation:
	// an empty name on either side, or a medicine item whose price is
	// negative or not finite.
	ErrInvalidItem = errors.New("invalid item")
)

// Lookup provides batch name lookups against the catalog.
type Lookup interface {
	FindPharmaciesByNames(names []string) ([]domain.Pharmacy, error)
	FindMedicinesByNames(names []string) ([]domain.Medicine, error)
}

// MedicineItem is one {name, price} pair accompanying a new pharmacy.
type MedicineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Options configures miss policies per resolution side.
type Options struct {
	PharmacyMiss MissPolicy
	MedicineMiss MissPolicy
}

// Option overrides one resolver policy.
type Option func(*Options)

// WithPharmacyMissPolicy overrides the pharmacy-side miss policy.
func WithPharmacyMissPolicy(policy MissPolicy) Option {
	return func(opts *Options) {
		opts.PharmacyMiss = policy
	}
}

// WithMedicineMissPolicy overrides the medicine-side miss policy.
func WithMedicineMissPolicy(policy MissPolicy) Option {
	return func(opts *Options) {
		opts.MedicineMiss = policy
	}
}

// Resolver resolves catalog names to identifiers through one policy-driven
// code path. Defaults preserve the historical asymmetry: pharmacy names fail
// the request on a miss, medicine names are dropped.
type Resolver struct {
	lookup Lookup
	opts   Options
}

// New constructs a resolver over the given lookup capability.
func New(lookup Lookup, options ...Option) *Resolver {
	opts := Options{
		PharmacyMiss: FailOnMiss,
		MedicineMiss: DropOnMiss,
	}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	return &Resolver{lookup: lookup, opts: opts}
}

// ResolvePharmacies resolves pharmacy names to IDs, in input order.
// Resolution is per item, so a duplicate name resolves once per occurrence
// instead of tripping a count mismatch.
func (r *Resolver) ResolvePharmacies(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, ErrNoNames
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty pharmacy name", ErrInvalidItem)
		}
	}
	pharmacies, err := r.lookup.FindPharmaciesByNames(dedupe(names))
	if err != nil {
		return nil, fmt.Errorf("find pharmacies: %w", err)
	}
	byName := make(map[string]string, len(pharmacies))
	for _, p := range pharmacies {
		byName[p.Name] = p.ID
	}
	return r.resolveIDs(byName, names, r.opts.PharmacyMiss)
}

// ResolveMedicineLinks resolves {name, price} items to {medicineID, price}
// links, in input order. Under the default DropOnMiss policy unresolved names
// are omitted from the output rather than failing the request.
func (r *Resolver) ResolveMedicineLinks(items []MedicineItem) ([]domain.MedicineLink, error) {
	if len(items) == 0 {
		return []domain.MedicineLink{}, nil
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("%w: empty medicine name", ErrInvalidItem)
		}
		if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) || item.Price < 0 {
			return nil, fmt.Errorf("%w: bad price for %q", ErrInvalidItem, item.Name)
		}
		names = append(names, item.Name)
	}
	medicines, err := r.lookup.FindMedicinesByNames(dedupe(names))
	if err != nil {
		return nil, fmt.Errorf("find medicines: %w", err)
	}
	byName := make(map[string]string, len(medicines))
	for _, med := range medicines {
		byName[med.Name] = med.ID
	}
	ids, err := r.resolveIDs(byName, names, r.opts.MedicineMiss)
	if err != nil {
		return nil, err
	}
	links := make([]domain.MedicineLink, 0, len(ids))
	i := 0
	for _, item := range items {
		if _, ok := byName[item.Name]; !ok {
			continue // dropped
		}
		links = append(links, domain.MedicineLink{MedicineID: ids[i], Price: item.Price})
		i++
	}
	return links, nil
}

// resolveIDs maps each requested name through the index, applying the miss
// policy item by item.
func (r *Resolver) resolveIDs(byName map[string]string, names []string, onMiss MissPolicy) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			if onMiss == DropOnMiss {
				continue
			}
			return nil, fmt.Errorf("%w: %q", ErrUnresolvableName, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
