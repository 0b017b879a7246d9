package app

import (
	"fmt"
	"math"
	"strings"
	"time"

	"pharmacompare/internal/resolver"
	"pharmacompare/internal/util"
	"pharmacompare/pkg/domain"
)

// MedicineView is a medicine with its pharmacy references expanded to
// {id, name, address} summaries.
type MedicineView struct {
	domain.Medicine
	Pharmacies []domain.PharmacySummary `json:"pharmacies"`
}

// PharmacyListItem is the {id, name} projection returned by ListPharmacies.
type PharmacyListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateMedicineInput is the payload for medicine creation. Pharmacies names
// the pharmacies stocking the medicine; all of them must resolve.
type CreateMedicineInput struct {
	Name        string
	Description string
	Price       *float64
	Pharmacies  []string
}

// CreatePharmacyInput is the payload for pharmacy creation. Unresolvable
// medicine names are dropped from the stored links.
type CreatePharmacyInput struct {
	Name      string
	Address   string
	Medicines []resolver.MedicineItem
}

// SearchMedicines returns medicines matching query (case-insensitive
// substring on name), or the full catalog when query is empty.
func (a *App) SearchMedicines(query string) ([]MedicineView, error) {
	medicines, err := a.store.SearchMedicines(strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("search medicines: %w", err)
	}
	summaries, err := a.pharmacySummaryIndex()
	if err != nil {
		return nil, err
	}
	views := make([]MedicineView, 0, len(medicines))
	for _, med := range medicines {
		views = append(views, expandMedicine(med, summaries))
	}
	return views, nil
}

// GetMedicine returns one medicine by ID with pharmacies expanded.
func (a *App) GetMedicine(id string) (MedicineView, error) {
	med, ok, err := a.store.GetMedicine(id)
	if err != nil {
		return MedicineView{}, fmt.Errorf("fetch medicine: %w", err)
	}
	if !ok {
		return MedicineView{}, ErrMedicineNotFound
	}
	summaries, err := a.pharmacySummaryIndex()
	if err != nil {
		return MedicineView{}, err
	}
	return expandMedicine(med, summaries), nil
}

// CreateMedicine resolves the named pharmacies, persists the medicine, and
// pushes a {medicineID, price} back-link into each of them. All names must
// resolve or the whole request fails and nothing is created. Pharmacy
// creation deliberately has no mirror of this back-link push.
func (a *App) CreateMedicine(in CreateMedicineInput) (domain.Medicine, error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	if name == "" || description == "" || len(in.Pharmacies) == 0 {
		return domain.Medicine{}, ErrMedicineFieldsRequired
	}
	var linkPrice float64
	if in.Price != nil {
		if math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0) || *in.Price < 0 {
			return domain.Medicine{}, ErrInvalidPrice
		}
		linkPrice = *in.Price
	}
	refs, err := a.resolver.ResolvePharmacies(in.Pharmacies)
	if err != nil {
		return domain.Medicine{}, err
	}
	now := time.Now().UTC()
	med := domain.Medicine{
		ID:           util.NewID(),
		Name:         name,
		Description:  description,
		Price:        in.Price,
		PharmacyRefs: refs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateMedicineWithLinks(med, linkPrice); err != nil {
		return domain.Medicine{}, fmt.Errorf("create medicine: %w", err)
	}
	return med, nil
}

// ListPharmacies returns {id, name} projections of all pharmacies.
func (a *App) ListPharmacies() ([]PharmacyListItem, error) {
	pharmacies, err := a.store.ListPharmacies()
	if err != nil {
		return nil, fmt.Errorf("list pharmacies: %w", err)
	}
	items := make([]PharmacyListItem, 0, len(pharmacies))
	for _, p := range pharmacies {
		items = append(items, PharmacyListItem{ID: p.ID, Name: p.Name})
	}
	return items, nil
}

// CreatePharmacy persists a new pharmacy with its medicine links resolved.
// Unresolvable medicine names are silently dropped.
func (a *App) CreatePharmacy(in CreatePharmacyInput) (domain.Pharmacy, error) {
	name := strings.TrimSpace(in.Name)
	address := strings.TrimSpace(in.Address)
	if name == "" || address == "" {
		return domain.Pharmacy{}, ErrPharmacyFieldsRequired
	}
	exists, err := a.store.HasPharmacyName(name)
	if err != nil {
		return domain.Pharmacy{}, fmt.Errorf("check pharmacy name: %w", err)
	}
	if exists {
		return domain.Pharmacy{}, ErrPharmacyExists
	}
	links, err := a.resolver.ResolveMedicineLinks(in.Medicines)
	if err != nil {
		return domain.Pharmacy{}, err
	}
	now := time.Now().UTC()
	pharmacy := domain.Pharmacy{
		ID:            util.NewID(),
		Name:          name,
		Address:       address,
		MedicineLinks: links,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.store.SavePharmacy(pharmacy); err != nil {
		return domain.Pharmacy{}, fmt.Errorf("save pharmacy: %w", err)
	}
	return pharmacy, nil
}

func (a *App) pharmacySummaryIndex() (map[string]domain.PharmacySummary, error) {
	pharmacies, err := a.store.ListPharmacies()
	if err != nil {
		return nil, fmt.Errorf("list pharmacies: %w", err)
	}
	index := make(map[string]domain.PharmacySummary, len(pharmacies))
	for _, p := range pharmacies {
		index[p.ID] = domain.PharmacySummary{ID: p.ID, Name: p.Name, Address: p.Address}
	}
	return index, nil
}

func expandMedicine(med domain.Medicine, summaries map[string]domain.PharmacySummary) MedicineView {
	view := MedicineView{Medicine: med, Pharmacies: make([]domain.PharmacySummary, 0, len(med.PharmacyRefs))}
	for _, ref := range med.PharmacyRefs {
		if summary, ok := summaries[ref]; ok {
			view.Pharmacies = append(view.Pharmacies, summary)
		}
	}
	return view
}
