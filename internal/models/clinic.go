package models

// ClinicAccount is the admin portal's view of a registered clinic.
type ClinicAccount struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ContactNo string `json:"contactNo"`
	Address   string `json:"address"`
	IsActive  bool   `json:"isActive"`
}
