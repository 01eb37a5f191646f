package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Property type enum values.
var PropertyTypes = []string{"house", "apartment", "condo", "townhouse", "land", "commercial", "other"}

// Listing type enum values.
var ListingTypes = []string{"sale", "rent"}

// Listing status enum values.
var PropertyStatuses = []string{"available", "sold", "rented", "pending"}

// Parking enum values.
var ParkingOptions = []string{"none", "street", "garage", "covered"}

// Amenity enum values.
var Amenities = []string{
	"pool", "garden", "balcony", "fireplace", "central-heating",
	"air-conditioning", "dishwasher", "washer-dryer", "gym",
	"security-system", "elevator", "furnished", "pet-friendly",
}

type Location struct {
	Address string  `bson:"address" json:"address"`
	City    string  `bson:"city" json:"city"`
	State   string  `bson:"state" json:"state"`
	ZipCode string  `bson:"zip_code" json:"zipCode"`
	Country string  `bson:"country" json:"country"`
	Lat     float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng     float64 `bson:"lng,omitempty" json:"lng,omitempty"`
}

type Features struct {
	Bedrooms   int      `bson:"bedrooms" json:"bedrooms"`
	Bathrooms  int      `bson:"bathrooms" json:"bathrooms"`
	SquareFeet int      `bson:"square_feet,omitempty" json:"squareFeet,omitempty"`
	YearBuilt  int      `bson:"year_built,omitempty" json:"yearBuilt,omitempty"`
	Parking    string   `bson:"parking,omitempty" json:"parking,omitempty"`
	Amenities  []string `bson:"amenities,omitempty" json:"amenities,omitempty"`
}

type Image struct {
	URL       string `bson:"url" json:"url"`
	PublicID  string `bson:"public_id" json:"publicId"`
	IsPrimary bool   `bson:"is_primary" json:"isPrimary"`
}

type ContactInfo struct {
	Phone            string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email            string `bson:"email,omitempty" json:"email,omitempty"`
	PreferredContact string `bson:"preferred_contact,omitempty" json:"preferredContact,omitempty"`
}

type Property struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Title        string               `bson:"title" json:"title"`
	Description  string               `bson:"description" json:"description"`
	Price        float64              `bson:"price" json:"price"`
	PropertyType string               `bson:"property_type" json:"propertyType"`
	ListingType  string               `bson:"listing_type" json:"listingType"`
	Status       string               `bson:"status" json:"status"`
	Location     Location             `bson:"location" json:"location"`
	Features     Features             `bson:"features" json:"features"`
	Images       []Image              `bson:"images" json:"images"`
	Owner        primitive.ObjectID   `bson:"owner" json:"owner"`
	ContactInfo  ContactInfo          `bson:"contact_info,omitempty" json:"contactInfo,omitempty"`
	Views        int64                `bson:"views" json:"views"`
	Favorites    []primitive.ObjectID `bson:"favorites" json:"favorites"`
	IsFeatured   bool                 `bson:"is_featured" json:"isFeatured"`
	IsActive     bool                 `bson:"is_active" json:"isActive"`
}

// PrimaryImage returns the URL of the image flagged primary, falling back to
// the first image, or "" when the listing has no images.
func (p *Property) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// IsFavoritedBy reports whether the user id is present in the favorites list.
func (p *Property) IsFavoritedBy(userID primitive.ObjectID) bool {
	for _, id := range p.Favorites {
		if id == userID {
			return true
		}
	}
	return false
}

// ValidEnum reports whether value is one of the allowed enum values.
func ValidEnum(value string, allowed []string) bool {
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}
