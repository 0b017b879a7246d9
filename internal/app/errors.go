package app

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown email and wrong password
	// alike, so login responses never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrSignupFieldsRequired = errors.New("username, email, and password required")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrEmailTaken           = errors.New("email already exists")

	ErrMedicineFieldsRequired = errors.New("name, description, and pharmacies required")
	ErrInvalidPrice           = errors.New("price must be a non-negative number")
	ErrPharmacyFieldsRequired = errors.New("name and address required")
	ErrPharmacyExists         = errors.New("pharmacy with this name already exists")

	ErrMedicineNotFound = errors.New("medicine not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrInvalidMedicineID = errors.New("invalid medicine ID")
	ErrAlreadyFavorite   = errors.New("medicine is already in favorites")
)
