package hospital

// Hospital is the summary attached to bot replies and served by the directory.
type Hospital struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Rating      float64  `json:"rating"`
	Distance    string   `json:"distance"`
	Specialties []string `json:"specialties"`
	IsOpen      bool     `json:"is_open"`
}

// Seed provides the demo directory used when no geo-search backend is wired in.
func Seed() []Hospital {
	return []Hospital{
		{
			ID:          "1",
			Name:        "City General Hospital",
			Address:     "123 Main Street, Downtown",
			Phone:       "+1-555-0123",
			Rating:      4.5,
			Distance:    "2.3 km",
			Specialties: []string{"Emergency Care", "Cardiology", "Internal Medicine"},
			IsOpen:      true,
		},
		{
			ID:          "2",
			Name:        "Medi Care Medical Center",
			Address:     "456 Health Avenue, Medical District",
			Phone:       "+1-555-0456",
			Rating:      4.8,
			Distance:    "3.1 km",
			Specialties: []string{"Family Medicine", "Pediatrics", "Orthopedics"},
			IsOpen:      true,
		},
		{
			ID:          "3",
			Name:        "Emergency Care Clinic",
			Address:     "789 Urgent Way, Central Area",
			Phone:       "+1-555-0789",
			Rating:      4.2,
			Distance:    "1.8 km",
			Specialties: []string{"Emergency Care", "Urgent Care", "Radiology"},
			IsOpen:      false,
		},
	}
}
