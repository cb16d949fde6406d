package models

// ServiceCategory is static reference data seeded at migration time.
type ServiceCategory struct {
	ID           uint   `json:"category_id" gorm:"primaryKey"`
	CategoryName string `json:"category_name" gorm:"type:varchar(100);uniqueIndex;not null"`
}

// DefaultCategories are seeded when the categories table is empty.
var DefaultCategories = []string{
	"Appliance Repair",
	"Carpentry",
	"Cleaning",
	"Electrical",
	"Gardening",
	"Painting",
	"Pest Control",
	"Plumbing",
}
