// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package clinics

// Defaults used when the directory omits a field.
const (
	DefaultName      = "Orthodontist Clinic"
	DefaultSpecialty = "Orthodontist"
)

// Clinic is the canonical, mappable clinic record.
type Clinic struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Specialty string   `json:"specialty"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Phone     string   `json:"phone"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Distance  *float64 `json:"distance,omitempty"` // kilometers, as reported upstream
}

// Result is a normalized batch. Total always equals len(Clinics).
type Result struct {
	Clinics []Clinic `json:"clinics"`
	Total   int      `json:"total"`
}

func emptyResult() Result {
	return Result{Clinics: []Clinic{}, Total: 0}
}

// City is an entry of the directory's city list.
type City struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
