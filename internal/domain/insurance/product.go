package insurance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProductMotor    = "motor"
	ProductHealth   = "health"
	ProductProperty = "property"
	ProductLife     = "life"
	ProductTravel   = "travel"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	ProductType string    `gorm:"not null;column:product_type;index" json:"product_type"`
	Description string    `gorm:"column:description" json:"description"`

	BasePremium float64 `gorm:"not null;column:base_premium" json:"base_premium"`
	MinPremium  float64 `gorm:"not null;column:min_premium" json:"min_premium"`
	MaxPremium  float64 `gorm:"not null;column:max_premium" json:"max_premium"`

	CoverageDetails   datatypes.JSON `gorm:"column:coverage_details;type:jsonb" json:"coverage_details"`
	Exclusions        datatypes.JSON `gorm:"column:exclusions;type:jsonb" json:"exclusions"`
	RequiredDocuments datatypes.JSON `gorm:"column:required_documents;type:jsonb" json:"required_documents"`

	IsActive bool `gorm:"not null;default:true;column:is_active;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "insurance_product" }
