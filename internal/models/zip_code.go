package models

// ZipCode is a locally imported US zip centroid used for map recentering
// without burning geocoder quota.
type ZipCode struct {
	ZipCode   string  `gorm:"primaryKey;size:5" json:"zip_code"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	City      string  `gorm:"size:100" json:"city"`
	State     string  `gorm:"size:2" json:"state"`
	StateName string  `gorm:"size:50" json:"state_name"`
	County    string  `gorm:"size:100" json:"county"`
}
