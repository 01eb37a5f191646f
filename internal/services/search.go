package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dwellio/dwellio-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ListingQuery holds the parsed search parameters for the public listing
// endpoint. Absent optional filters stay nil/empty and are omitted from the
// store filter entirely.
type ListingQuery struct {
	MinPrice     *float64
	MaxPrice     *float64
	PropertyType string
	ListingType  string
	City         string
	State        string
	MinBedrooms  *int
	MinBathrooms *int
	Search       string
	Page         int
	PageSize     int
}

// ParseListingQuery validates and parses the raw query parameters. Invalid
// values are rejected with field errors, never silently clamped.
func ParseListingQuery(values url.Values) (ListingQuery, []FieldError) {
	q := ListingQuery{Page: DefaultPage, PageSize: DefaultPageSize}
	var errs []FieldError

	if v := values.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			errs = append(errs, FieldError{Field: "page", Message: "page must be a positive integer"})
		} else {
			q.Page = page
		}
	}
	if v := values.Get("pageSize"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > MaxPageSize {
			errs = append(errs, FieldError{Field: "pageSize", Message: fmt.Sprintf("pageSize must be an integer between 1 and %d", MaxPageSize)})
		} else {
			q.PageSize = size
		}
	}

	if v := values.Get("minPrice"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil || min < 0 {
			errs = append(errs, FieldError{Field: "minPrice", Message: "minPrice must be a non-negative number"})
		} else {
			q.MinPrice = &min
		}
	}
	if v := values.Get("maxPrice"); v != "" {
		max, err := strconv.ParseFloat(v, 64)
		if err != nil || max < 0 {
			errs = append(errs, FieldError{Field: "maxPrice", Message: "maxPrice must be a non-negative number"})
		} else {
			q.MaxPrice = &max
		}
	}

	if v := values.Get("propertyType"); v != "" {
		if !models.ValidEnum(v, models.PropertyTypes) {
			errs = append(errs, FieldError{Field: "propertyType", Message: "propertyType must be one of " + strings.Join(models.PropertyTypes, ", ")})
		} else {
			q.PropertyType = v
		}
	}
	if v := values.Get("listingType"); v != "" {
		if !models.ValidEnum(v, models.ListingTypes) {
			errs = append(errs, FieldError{Field: "listingType", Message: "listingType must be one of " + strings.Join(models.ListingTypes, ", ")})
		} else {
			q.ListingType = v
		}
	}

	q.City = strings.TrimSpace(values.Get("city"))
	q.State = strings.TrimSpace(values.Get("state"))
	q.Search = strings.TrimSpace(values.Get("search"))

	if v := values.Get("minBedrooms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "minBedrooms", Message: "minBedrooms must be a non-negative integer"})
		} else {
			q.MinBedrooms = &n
		}
	}
	if v := values.Get("minBathrooms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "minBathrooms", Message: "minBathrooms must be a non-negative integer"})
		} else {
			q.MinBathrooms = &n
		}
	}

	return q, errs
}

// Filter builds the MongoDB document filter for the query. The public
// listing endpoint only ever returns active listings, so is_active is
// unconditional. Price bounds are inclusive and omitted when absent so the
// store never scans an open-ended range it doesn't need.
func (q ListingQuery) Filter() bson.M {
	filter := bson.M{"is_active": true}

	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		filter["price"] = price
	}

	if q.PropertyType != "" {
		filter["property_type"] = q.PropertyType
	}
	if q.ListingType != "" {
		filter["listing_type"] = q.ListingType
	}

	// Case-insensitive substring match against the stored strings.
	if q.City != "" {
		filter["location.city"] = bson.M{"$regex": regexp.QuoteMeta(q.City), "$options": "i"}
	}
	if q.State != "" {
		filter["location.state"] = bson.M{"$regex": regexp.QuoteMeta(q.State), "$options": "i"}
	}

	if q.MinBedrooms != nil {
		filter["features.bedrooms"] = bson.M{"$gte": *q.MinBedrooms}
	}
	if q.MinBathrooms != nil {
		filter["features.bathrooms"] = bson.M{"$gte": *q.MinBathrooms}
	}

	// Relevance match against the text index on title/description/city/state.
	// ANDs with any city/state substring filters above.
	if q.Search != "" {
		filter["$text"] = bson.M{"$search": q.Search}
	}

	return filter
}

// Skip returns the number of documents to skip for the requested page.
func (q ListingQuery) Skip() int64 {
	return int64((q.Page - 1) * q.PageSize)
}

// TotalPages derives the page count: ceil(total / pageSize).
func TotalPages(total int64, pageSize int) int64 {
	if pageSize <= 0 {
		return 0
	}
	return (total + int64(pageSize) - 1) / int64(pageSize)
}

// CacheParams returns the query as a flat map for cache key generation.
// Only set parameters are included so equivalent queries share a key.
func (q ListingQuery) CacheParams() map[string]string {
	params := map[string]string{
		"page":     strconv.Itoa(q.Page),
		"pageSize": strconv.Itoa(q.PageSize),
	}
	if q.MinPrice != nil {
		params["minPrice"] = strconv.FormatFloat(*q.MinPrice, 'f', -1, 64)
	}
	if q.MaxPrice != nil {
		params["maxPrice"] = strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64)
	}
	if q.PropertyType != "" {
		params["propertyType"] = q.PropertyType
	}
	if q.ListingType != "" {
		params["listingType"] = q.ListingType
	}
	if q.City != "" {
		params["city"] = strings.ToLower(q.City)
	}
	if q.State != "" {
		params["state"] = strings.ToLower(q.State)
	}
	if q.MinBedrooms != nil {
		params["minBedrooms"] = strconv.Itoa(*q.MinBedrooms)
	}
	if q.MinBathrooms != nil {
		params["minBathrooms"] = strconv.Itoa(*q.MinBathrooms)
	}
	if q.Search != "" {
		params["search"] = strings.ToLower(q.Search)
	}
	return params
}
