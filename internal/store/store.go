package store

import "pharmacompare/pkg/domain"

// Store defines persistence operations for medicines, pharmacies, and users.
//
// The two catalog collections are independently keyed and carry redundant
// references to each other. Per-record writes are atomic; the only write that
// spans both collections is CreateMedicineWithLinks.
type Store interface {
	// medicines
	SaveMedicine(domain.Medicine) error
	GetMedicine(id string) (domain.Medicine, bool, error)
	SearchMedicines(query string) ([]domain.Medicine, error)
	FindMedicinesByNames(names []string) ([]domain.Medicine, error)
	// CreateMedicineWithLinks persists the medicine and appends a
	// {medicineID, price} link to every pharmacy in m.PharmacyRefs as one
	// atomic write. Pharmacy IDs must already be resolved and valid.
	CreateMedicineWithLinks(m domain.Medicine, price float64) error

	// pharmacies
	SavePharmacy(domain.Pharmacy) error
	GetPharmacy(id string) (domain.Pharmacy, bool, error)
	ListPharmacies() ([]domain.Pharmacy, error)
	FindPharmaciesByNames(names []string) ([]domain.Pharmacy, error)
	HasPharmacyName(name string) (bool, error)

	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	HasUsername(username string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
}

// SessionStore issues and validates bearer tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
}
