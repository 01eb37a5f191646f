package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Don't return password in JSON
	Role     string `bson:"role" json:"role"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Avatar   string `bson:"avatar,omitempty" json:"avatar,omitempty"`

	// Buyer preferences
	PreferredPropertyType string `bson:"preferred_property_type,omitempty" json:"preferredPropertyType,omitempty"`
	BudgetRange           string `bson:"budget_range,omitempty" json:"budgetRange,omitempty"`
	PreferredLocation     string `bson:"preferred_location,omitempty" json:"preferredLocation,omitempty"`

	// Seller details
	CompanyName    string `bson:"company_name,omitempty" json:"companyName,omitempty"`
	LicenseNumber  string `bson:"license_number,omitempty" json:"licenseNumber,omitempty"`
	Experience     string `bson:"experience,omitempty" json:"experience,omitempty"`
	Specialization string `bson:"specialization,omitempty" json:"specialization,omitempty"`
}

// CanList reports whether the user may create listings.
func (u *User) CanList() bool {
	return u.Role == RoleSeller || u.Role == RoleAdmin
}
