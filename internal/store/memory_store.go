package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"pharmacompare/pkg/domain"
)

// MemoryStore keeps all records in-process. It is used by tests and mirrors
// the per-record atomicity of the database store; CreateMedicineWithLinks
// applies all of its writes under one lock.
type MemoryStore struct {
	mu         sync.RWMutex
	medicines  map[string]domain.Medicine
	medOrder   []string
	pharmacies map[string]domain.Pharmacy
	phOrder    []string
	users      map[string]domain.User
	email      map[string]string // email -> user ID
	username   map[string]string // username -> user ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		medicines:  make(map[string]domain.Medicine),
		pharmacies: make(map[string]domain.Pharmacy),
		users:      make(map[string]domain.User),
		email:      make(map[string]string),
		username:   make(map[string]string),
	}
}

// SaveMedicine stores or replaces a medicine and tracks insertion order.
func (m *MemoryStore) SaveMedicine(med domain.Medicine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveMedicineLocked(med)
	return nil
}

func (m *MemoryStore) saveMedicineLocked(med domain.Medicine) {
	if _, exists := m.medicines[med.ID]; !exists {
		m.medOrder = append(m.medOrder, med.ID)
	}
	m.medicines[med.ID] = med
}

// GetMedicine retrieves a medicine by ID.
func (m *MemoryStore) GetMedicine(id string) (domain.Medicine, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	med, ok := m.medicines[id]
	return med, ok, nil
}

// SearchMedicines returns medicines whose name contains query, case-insensitively.
func (m *MemoryStore) SearchMedicines(query string) ([]domain.Medicine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	query = strings.ToLower(query)
	res := make([]domain.Medicine, 0, len(m.medOrder))
	for _, id := range m.medOrder {
		med, ok := m.medicines[id]
		if !ok {
			continue
		}
		if query == "" || strings.Contains(strings.ToLower(med.Name), query) {
			res = append(res, med)
		}
	}
	return res, nil
}

// FindMedicinesByNames returns medicines by exact name match.
func (m *MemoryStore) FindMedicinesByNames(names []string) ([]domain.Medicine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}
	res := make([]domain.Medicine, 0, len(wanted))
	for _, id := range m.medOrder {
		med, ok := m.medicines[id]
		if !ok {
			continue
		}
		if _, ok := wanted[med.Name]; ok {
			res = append(res, med)
		}
	}
	return res, nil
}

// CreateMedicineWithLinks persists the medicine and appends a back-link to
// every referenced pharmacy under a single lock.
func (m *MemoryStore) CreateMedicineWithLinks(med domain.Medicine, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ref := range med.PharmacyRefs {
		if _, ok := m.pharmacies[ref]; !ok {
			return fmt.Errorf("pharmacy %s not found", ref)
		}
	}
	m.saveMedicineLocked(med)
	now := time.Now().UTC()
	for _, ref := range med.PharmacyRefs {
		pharmacy := m.pharmacies[ref]
		pharmacy.MedicineLinks = append(pharmacy.MedicineLinks, domain.MedicineLink{
			MedicineID: med.ID,
			Price:      price,
		})
		pharmacy.UpdatedAt = now
		m.pharmacies[ref] = pharmacy
	}
	return nil
}

// SavePharmacy stores or replaces a pharmacy and tracks insertion order.
func (m *MemoryStore) SavePharmacy(p domain.Pharmacy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pharmacies[p.ID]; !exists {
		m.phOrder = append(m.phOrder, p.ID)
	}
	m.pharmacies[p.ID] = p
	return nil
}

// GetPharmacy retrieves a pharmacy by ID.
func (m *MemoryStore) GetPharmacy(id string) (domain.Pharmacy, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pharmacies[id]
	return p, ok, nil
}

// ListPharmacies returns pharmacies in insertion order.
func (m *MemoryStore) ListPharmacies() ([]domain.Pharmacy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Pharmacy, 0, len(m.phOrder))
	for _, id := range m.phOrder {
		if p, ok := m.pharmacies[id]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}

// FindPharmaciesByNames returns pharmacies by exact name match.
func (m *MemoryStore) FindPharmaciesByNames(names []string) ([]domain.Pharmacy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}
	res := make([]domain.Pharmacy, 0, len(wanted))
	for _, id := range m.phOrder {
		p, ok := m.pharmacies[id]
		if !ok {
			continue
		}
		if _, ok := wanted[p.Name]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}

// HasPharmacyName checks if a pharmacy name exists.
func (m *MemoryStore) HasPharmacyName(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.pharmacies {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// SaveUser registers or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	m.username[u.Username] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// HasUsername checks if username exists.
func (m *MemoryStore) HasUsername(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.username[username]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.email[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}
