package models

import "time"

// Inquiry is a contact-the-seller message for a listing. Stored in PostgreSQL.
type Inquiry struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	PropertyID string    `json:"propertyId"`
	OwnerID    string    `json:"ownerId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Message    string    `json:"message"`
	IPAddress  string    `json:"-"`
}
