package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/domain/risk"
)

const (
	TypeCustomer = "customer"
	TypeAgent    = "agent"
	TypeAdmin    = "admin"
	TypeReviewer = "reviewer"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PhoneNumber string    `gorm:"uniqueIndex;not null;column:phone_number" json:"phone_number"`
	Email       string    `gorm:"column:email" json:"email,omitempty"`
	Password    string    `gorm:"not null;column:password" json:"-"`
	FirstName   string    `gorm:"not null;column:first_name" json:"first_name"`
	LastName    string    `gorm:"not null;column:last_name" json:"last_name"`
	UserType    string    `gorm:"not null;default:customer;column:user_type;index" json:"user_type"`

	DateOfBirth *time.Time `gorm:"column:date_of_birth" json:"date_of_birth,omitempty"`
	BVN         string     `gorm:"column:bvn" json:"-"`
	NIN         string     `gorm:"column:nin" json:"-"`
	Address     string     `gorm:"column:address" json:"address,omitempty"`
	State       string     `gorm:"column:state" json:"state,omitempty"`
	LGA         string     `gorm:"column:lga" json:"lga,omitempty"`

	// Underwriting profile. New customers start at the neutral
	// midpoint until claims history moves the score.
	SoroScore      float64 `gorm:"not null;default:50;column:soro_score" json:"soro_score"`
	TotalClaims    int     `gorm:"not null;default:0;column:total_claims" json:"total_claims"`
	ApprovedClaims int     `gorm:"not null;default:0;column:approved_claims" json:"approved_claims"`
	RejectedClaims int     `gorm:"not null;default:0;column:rejected_claims" json:"rejected_claims"`

	BankAccountNumber string `gorm:"column:bank_account_number" json:"-"`
	BankName          string `gorm:"column:bank_name" json:"bank_name,omitempty"`
	AccountName       string `gorm:"column:account_name" json:"account_name,omitempty"`

	PrefersVoice   bool   `gorm:"not null;default:true;column:prefers_voice" json:"prefers_voice"`
	WhatsappNumber string `gorm:"column:whatsapp_number" json:"whatsapp_number,omitempty"`

	IsActive bool `gorm:"not null;default:true;column:is_active" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) RiskLevel() string { return risk.LevelForScore(u.SoroScore) }

func (u *User) IsStaff() bool {
	return u.UserType == TypeAdmin || u.UserType == TypeReviewer
}
