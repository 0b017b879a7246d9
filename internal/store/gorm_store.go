package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"pharmacompare/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&MedicineModel{}, &PharmacyModel{}, &UserModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveMedicine stores or updates a medicine.
func (s *GormStore) SaveMedicine(m domain.Medicine) error {
	model := medicineToModel(m)
	return s.db.Save(&model).Error
}

// GetMedicine retrieves a medicine by ID.
func (s *GormStore) GetMedicine(id string) (domain.Medicine, bool, error) {
	var model MedicineModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Medicine{}, false, nil
		}
		return domain.Medicine{}, false, err
	}
	return medicineFromModel(model), true, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikePattern quotes LIKE metacharacters so a query like "50%"
// matches literally rather than as a wildcard.
func escapeLikePattern(query string) string {
	return likeEscaper.Replace(query)
}

// SearchMedicines returns medicines whose name contains query,
// case-insensitively. An empty query returns the full listing.
func (s *GormStore) SearchMedicines(query string) ([]domain.Medicine, error) {
	tx := s.db.Order("created_at ASC")
	if query != "" {
		tx = tx.Where("name ILIKE ?", "%"+escapeLikePattern(query)+"%")
	}
	var models []MedicineModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Medicine, 0, len(models))
	for _, m := range models {
		res = append(res, medicineFromModel(m))
	}
	return res, nil
}

// FindMedicinesByNames returns all medicines whose name is in names
// (case-sensitive exact match).
func (s *GormStore) FindMedicinesByNames(names []string) ([]domain.Medicine, error) {
	if len(names) == 0 {
		return []domain.Medicine{}, nil
	}
	var models []MedicineModel
	if err := s.db.Where("name IN ?", names).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Medicine, 0, len(models))
	for _, m := range models {
		res = append(res, medicineFromModel(m))
	}
	return res, nil
}

// CreateMedicineWithLinks persists the medicine and pushes a back-link into
// every referenced pharmacy inside one transaction, so a failure partway
// through leaves no partial links behind.
func (s *GormStore) CreateMedicineWithLinks(m domain.Medicine, price float64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		model := medicineToModel(m)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if len(m.PharmacyRefs) == 0 {
			return nil
		}
		var pharmacies []PharmacyModel
		if err := tx.Where("id IN ?", m.PharmacyRefs).Find(&pharmacies).Error; err != nil {
			return err
		}
		byID := make(map[string]*PharmacyModel, len(pharmacies))
		for i := range pharmacies {
			byID[pharmacies[i].ID] = &pharmacies[i]
		}
		// One link per occurrence: the ref list may legitimately name the
		// same pharmacy more than once.
		touched := make(map[string]struct{}, len(byID))
		for _, ref := range m.PharmacyRefs {
			pharmacy, ok := byID[ref]
			if !ok {
				return fmt.Errorf("pharmacy %s not found", ref)
			}
			links, err := decodeLinks(pharmacy.MedicineLinks)
			if err != nil {
				return fmt.Errorf("decode links for pharmacy %s: %w", ref, err)
			}
			links = append(links, domain.MedicineLink{MedicineID: m.ID, Price: price})
			raw, err := json.Marshal(links)
			if err != nil {
				return err
			}
			pharmacy.MedicineLinks = raw
			touched[ref] = struct{}{}
		}
		now := time.Now().UTC()
		for id := range touched {
			pharmacy := byID[id]
			if err := tx.Model(&PharmacyModel{}).Where("id = ?", id).
				Updates(map[string]any{
					"medicine_links": pharmacy.MedicineLinks,
					"updated_at":     now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SavePharmacy stores or updates a pharmacy.
func (s *GormStore) SavePharmacy(p domain.Pharmacy) error {
	model := pharmacyToModel(p)
	return s.db.Save(&model).Error
}

// GetPharmacy retrieves a pharmacy by ID.
func (s *GormStore) GetPharmacy(id string) (domain.Pharmacy, bool, error) {
	var model PharmacyModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Pharmacy{}, false, nil
		}
		return domain.Pharmacy{}, false, err
	}
	return pharmacyFromModel(model), true, nil
}

// ListPharmacies returns all pharmacies ordered by created_at.
func (s *GormStore) ListPharmacies() ([]domain.Pharmacy, error) {
	var models []PharmacyModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Pharmacy, 0, len(models))
	for _, m := range models {
		res = append(res, pharmacyFromModel(m))
	}
	return res, nil
}

// FindPharmaciesByNames returns all pharmacies whose name is in names.
func (s *GormStore) FindPharmaciesByNames(names []string) ([]domain.Pharmacy, error) {
	if len(names) == 0 {
		return []domain.Pharmacy{}, nil
	}
	var models []PharmacyModel
	if err := s.db.Where("name IN ?", names).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Pharmacy, 0, len(models))
	for _, m := range models {
		res = append(res, pharmacyFromModel(m))
	}
	return res, nil
}

// HasPharmacyName checks if a pharmacy name exists.
func (s *GormStore) HasPharmacyName(name string) (bool, error) {
	var count int64
	if err := s.db.Model(&PharmacyModel{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Save(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasUsername checks if username exists.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func decodeLinks(raw []byte) ([]domain.MedicineLink, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var links []domain.MedicineLink
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func medicineToModel(m domain.Medicine) MedicineModel {
	refs, _ := json.Marshal(m.PharmacyRefs)
	return MedicineModel{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		PharmacyRefs: refs,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func medicineFromModel(m MedicineModel) domain.Medicine {
	var refs []string
	if len(m.PharmacyRefs) > 0 {
		_ = json.Unmarshal(m.PharmacyRefs, &refs)
	}
	return domain.Medicine{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		PharmacyRefs: refs,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func pharmacyToModel(p domain.Pharmacy) PharmacyModel {
	links, _ := json.Marshal(p.MedicineLinks)
	return PharmacyModel{
		ID:            p.ID,
		Name:          p.Name,
		Address:       p.Address,
		MedicineLinks: links,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func pharmacyFromModel(m PharmacyModel) domain.Pharmacy {
	links, _ := decodeLinks(m.MedicineLinks)
	return domain.Pharmacy{
		ID:            m.ID,
		Name:          m.Name,
		Address:       m.Address,
		MedicineLinks: links,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	favorites, _ := json.Marshal(u.Favorites)
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Favorites:    favorites,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	var favorites []string
	if len(m.Favorites) > 0 {
		_ = json.Unmarshal(m.Favorites, &favorites)
	}
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Favorites:    favorites,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
