package models

import "time"

type Driver struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	LicenseClasses string    `json:"license_classes,omitempty"`
	EmploymentType string    `json:"employment_type,omitempty"`
	HiredOn        string    `json:"hired_on,omitempty"`
	Active         bool      `json:"active"`
	AvatarPath     string    `json:"-"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type DriverDocument struct {
	ID          string    `json:"id"`
	DriverID    string    `json:"driver_id"`
	Name        string    `json:"name"`
	StoragePath string    `json:"-"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Title      string    `json:"title,omitempty"`
	EmployedOn string    `json:"employed_on,omitempty"`
	Active     bool      `json:"active"`
	AvatarPath string    `json:"-"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Vehicle struct {
	ID           string    `json:"id"`
	Registration string    `json:"registration"`
	Name         string    `json:"name,omitempty"`
	Seats        int       `json:"seats"`
	ModelYear    int       `json:"model_year,omitempty"`
	LastService  string    `json:"last_service,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
