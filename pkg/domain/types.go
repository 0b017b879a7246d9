package domain

import "time"

// Medicine is a catalog entry. PharmacyRefs holds the IDs of pharmacies that
// stock it; the reverse side lives in Pharmacy.MedicineLinks.
type Medicine struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        *float64  `json:"price,omitempty"`
	PharmacyRefs []string  `json:"pharmacyRefs"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MedicineLink records the price of one medicine at one pharmacy. The price
// may differ from the medicine's own list price.
type MedicineLink struct {
	MedicineID string  `json:"medicineId"`
	Price      float64 `json:"price"`
}

type Pharmacy struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	MedicineLinks []MedicineLink `json:"medicines"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Favorites    []string  `json:"favorites"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PharmacySummary is the projection embedded in medicine listings.
type PharmacySummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// MedicineSummary is the projection used for favorites listings.
type MedicineSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
