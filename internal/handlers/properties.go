package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dwellio/dwellio-backend/internal/config"
	"github.com/dwellio/dwellio-backend/internal/database"
	"github.com/dwellio/dwellio-backend/internal/middleware"
	"github.com/dwellio/dwellio-backend/internal/models"
	"github.com/dwellio/dwellio-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	maxImageSize  = 10 << 20 // 10MB per file
	maxImageCount = 5
	imageFolder   = "dwellio/properties"
)

var cloudinaryService *services.CloudinaryService

func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

// propertyIDParam parses the {id} route param as an ObjectID.
func propertyIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// parsePropertyForm validates the multipart fields of a create or update
// request. When requireAll is false, absent fields are simply omitted from
// the returned set map.
func parsePropertyForm(r *http.Request, requireAll bool) (models.Property, bson.M, []services.FieldError) {
	var p models.Property
	set := bson.M{}
	var errs []services.FieldError

	has := func(field string) bool {
		return requireAll || r.FormValue(field) != ""
	}

	if has("title") {
		title := strings.TrimSpace(r.FormValue("title"))
		if n := utf8.RuneCountInString(title); n < 5 || n > 100 {
			errs = append(errs, services.FieldError{Field: "title", Message: "Title must be between 5 and 100 characters"})
		} else {
			p.Title = title
			set["title"] = title
		}
	}
	if has("description") {
		desc := strings.TrimSpace(r.FormValue("description"))
		if desc == "" || utf8.RuneCountInString(desc) > 2000 {
			errs = append(errs, services.FieldError{Field: "description", Message: "Description is required and cannot be more than 2000 characters"})
		} else {
			p.Description = desc
			set["description"] = desc
		}
	}
	if has("price") {
		price, err := strconv.ParseFloat(r.FormValue("price"), 64)
		if err != nil || price < 0 {
			errs = append(errs, services.FieldError{Field: "price", Message: "Price must be a non-negative number"})
		} else {
			p.Price = price
			set["price"] = price
		}
	}
	if has("propertyType") {
		v := r.FormValue("propertyType")
		if !models.ValidEnum(v, models.PropertyTypes) {
			errs = append(errs, services.FieldError{Field: "propertyType", Message: "propertyType must be one of " + strings.Join(models.PropertyTypes, ", ")})
		} else {
			p.PropertyType = v
			set["property_type"] = v
		}
	}
	if has("listingType") {
		v := r.FormValue("listingType")
		if !models.ValidEnum(v, models.ListingTypes) {
			errs = append(errs, services.FieldError{Field: "listingType", Message: "listingType must be one of sale, rent"})
		} else {
			p.ListingType = v
			set["listing_type"] = v
		}
	}
	if v := r.FormValue("status"); v != "" {
		if !models.ValidEnum(v, models.PropertyStatuses) {
			errs = append(errs, services.FieldError{Field: "status", Message: "status must be one of " + strings.Join(models.PropertyStatuses, ", ")})
		} else {
			p.Status = v
			set["status"] = v
		}
	}

	// Location
	loc := models.Location{
		Address: strings.TrimSpace(r.FormValue("address")),
		City:    strings.TrimSpace(r.FormValue("city")),
		State:   strings.TrimSpace(r.FormValue("state")),
		ZipCode: strings.TrimSpace(r.FormValue("zipCode")),
		Country: strings.TrimSpace(r.FormValue("country")),
	}
	if loc.Country == "" {
		loc.Country = "USA"
	}
	if requireAll {
		for field, value := range map[string]string{
			"address": loc.Address, "city": loc.City, "state": loc.State, "zipCode": loc.ZipCode,
		} {
			if value == "" {
				errs = append(errs, services.FieldError{Field: field, Message: field + " is required"})
			}
		}
	}
	if v := r.FormValue("lat"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			loc.Lat = lat
		}
	}
	if v := r.FormValue("lng"); v != "" {
		if lng, err := strconv.ParseFloat(v, 64); err == nil {
			loc.Lng = lng
		}
	}
	p.Location = loc
	if requireAll {
		set["location"] = loc
	} else {
		for key, value := range map[string]string{
			"location.address": loc.Address, "location.city": loc.City,
			"location.state": loc.State, "location.zip_code": loc.ZipCode,
		} {
			if value != "" {
				set[key] = value
			}
		}
	}

	// Features
	features := models.Features{}
	intFeature := func(field string, dest *int) {
		if v := r.FormValue(field); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				errs = append(errs, services.FieldError{Field: field, Message: field + " must be a non-negative integer"})
				return
			}
			*dest = n
			set["features."+featureKey(field)] = n
		}
	}
	intFeature("bedrooms", &features.Bedrooms)
	intFeature("bathrooms", &features.Bathrooms)
	intFeature("squareFeet", &features.SquareFeet)
	intFeature("yearBuilt", &features.YearBuilt)
	if v := r.FormValue("parking"); v != "" {
		if !models.ValidEnum(v, models.ParkingOptions) {
			errs = append(errs, services.FieldError{Field: "parking", Message: "parking must be one of " + strings.Join(models.ParkingOptions, ", ")})
		} else {
			features.Parking = v
			set["features.parking"] = v
		}
	}
	if v := r.FormValue("amenities"); v != "" {
		var amenities []string
		for _, a := range strings.Split(v, ",") {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			if !models.ValidEnum(a, models.Amenities) {
				errs = append(errs, services.FieldError{Field: "amenities", Message: "invalid amenity: " + a})
				continue
			}
			amenities = append(amenities, a)
		}
		features.Amenities = amenities
		set["features.amenities"] = amenities
	}
	p.Features = features
	if requireAll {
		set["features"] = features
	}

	// Contact info
	contact := models.ContactInfo{
		Phone:            strings.TrimSpace(r.FormValue("contactPhone")),
		Email:            strings.TrimSpace(r.FormValue("contactEmail")),
		PreferredContact: r.FormValue("preferredContact"),
	}
	if contact.PreferredContact != "" && !models.ValidEnum(contact.PreferredContact, []string{"phone", "email", "both"}) {
		errs = append(errs, services.FieldError{Field: "preferredContact", Message: "preferredContact must be one of phone, email, both"})
	}
	p.ContactInfo = contact
	if requireAll {
		set["contact_info"] = contact
	} else if contact.Phone != "" || contact.Email != "" || contact.PreferredContact != "" {
		set["contact_info"] = contact
	}

	return p, set, errs
}

// uploadFormImages uploads the request's image files to Cloudinary.
// Enforces the per-request count cap and per-file size cap before any upload.
func uploadFormImages(ctx context.Context, files []*multipart.FileHeader) ([]models.Image, *services.FieldError) {
	if len(files) == 0 {
		return nil, nil
	}
	if cloudinaryService == nil {
		return nil, &services.FieldError{Field: "images", Message: "Image uploads are not available"}
	}
	if len(files) > maxImageCount {
		return nil, &services.FieldError{Field: "images", Message: fmt.Sprintf("A maximum of %d images is allowed per request", maxImageCount)}
	}
	for _, fh := range files {
		if fh.Size > maxImageSize {
			return nil, &services.FieldError{Field: "images", Message: fmt.Sprintf("Each image must be at most %dMB", maxImageSize>>20)}
		}
	}

	var images []models.Image
	for _, fh := range files {
		uploaded, err := cloudinaryService.UploadImageFromHeader(ctx, fh, imageFolder)
		if err != nil {
			log.Printf("image upload failed: %v", err)
			return nil, &services.FieldError{Field: "images", Message: "Failed to upload image"}
		}
		images = append(images, models.Image{URL: uploaded.URL, PublicID: uploaded.PublicID})
	}
	return images, nil
}

// CreateProperty creates a listing owned by the authenticated caller.
// Requires the seller or admin role (enforced at the route). The owner is
// always the caller, regardless of any owner value in the request body, and
// the first uploaded image is marked primary.
func CreateProperty(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	property, _, errs := parsePropertyForm(r, true)
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	images, ferr := uploadFormImages(ctx, files)
	if ferr != nil {
		writeValidationErrors(w, []services.FieldError{*ferr})
		return
	}
	if len(images) > 0 {
		images[0].IsPrimary = true
	}

	now := time.Now()
	property.ID = primitive.NewObjectID()
	property.CreatedAt = now
	property.UpdatedAt = now
	property.Owner = claims.UserID
	property.Images = images
	property.Favorites = []primitive.ObjectID{}
	property.IsActive = true
	if property.Status == "" {
		property.Status = "available"
	}

	if _, err := database.DB.Collection(database.PropertiesCollection).InsertOne(ctx, property); err != nil {
		log.Printf("create property: insert failed: %v", err)
		writeServerError(w)
		return
	}

	if err := services.PublishListingEvent(ctx, services.ListingEvent{
		Type:         services.FeedEventCreated,
		PropertyID:   property.ID.Hex(),
		Title:        property.Title,
		Price:        property.Price,
		PropertyType: property.PropertyType,
		ListingType:  property.ListingType,
		City:         property.Location.City,
		State:        property.Location.State,
	}); err != nil {
		log.Printf("create property: feed publish failed: %v", err)
	}

	writeData(w, http.StatusCreated, property)
}

// GetProperty returns a single listing and atomically increments its view
// counter in the same round trip.
func GetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid property ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var property models.Property
	err := database.DB.Collection(database.PropertiesCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&property)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			writeMessage(w, http.StatusNotFound, "Property not found")
			return
		}
		log.Printf("get property: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusOK, property)
}

// canMutate reports whether the caller owns the property or is an admin.
func canMutate(claims *services.TokenClaims, property *models.Property) bool {
	return property.Owner == claims.UserID || claims.Role == models.RoleAdmin
}

// UpdateProperty updates a listing. Newly uploaded images are appended; to
// remove existing images the client resubmits the surviving image list in
// the existingImages field.
func UpdateProperty(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, ok := propertyIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid property ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	properties := database.DB.Collection(database.PropertiesCollection)

	// Existence before authorization: missing listings are 404 for everyone.
	var property models.Property
	if err := properties.FindOne(ctx, bson.M{"_id": id}).Decode(&property); err != nil {
		if err == mongo.ErrNoDocuments {
			writeMessage(w, http.StatusNotFound, "Property not found")
			return
		}
		log.Printf("update property: lookup failed: %v", err)
		writeServerError(w)
		return
	}
	if !canMutate(claims, &property) {
		writeMessage(w, http.StatusForbidden, "Not authorized to update this property")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	_, set, errs := parsePropertyForm(r, false)
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}
	newImages, ferr := uploadFormImages(ctx, files)
	if ferr != nil {
		writeValidationErrors(w, []services.FieldError{*ferr})
		return
	}

	// Image list: survivors (explicit removal) or all current images, plus
	// any new uploads appended. Removed assets are destroyed only after the
	// survivor list is persisted.
	kept := property.Images
	var removed []models.Image
	if v := r.FormValue("existingImages"); v != "" {
		var survivors []models.Image
		if err := json.Unmarshal([]byte(v), &survivors); err != nil {
			writeValidationErrors(w, []services.FieldError{{Field: "existingImages", Message: "existingImages must be a JSON array of images"}})
			return
		}
		removed = removedImages(property.Images, survivors)
		kept = survivors
	}
	if len(newImages) > 0 || r.FormValue("existingImages") != "" {
		images := append(kept, newImages...)
		if images == nil {
			images = []models.Image{}
		}
		set["images"] = images
	}

	if len(set) == 0 {
		writeMessage(w, http.StatusBadRequest, "No valid fields to update")
		return
	}
	set["updated_at"] = time.Now()

	var updated models.Property
	err := properties.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		log.Printf("update property: update failed: %v", err)
		writeServerError(w)
		return
	}

	// Best-effort cleanup of removed assets, now that the document no longer
	// references them.
	if cloudinaryService != nil {
		for _, img := range removed {
			if err := cloudinaryService.DestroyImage(ctx, img.PublicID); err != nil {
				log.Printf("update property: destroy image %s: %v", img.PublicID, err)
			}
		}
	}

	if updated.IsActive {
		if err := services.PublishListingEvent(ctx, services.ListingEvent{
			Type:         services.FeedEventUpdated,
			PropertyID:   updated.ID.Hex(),
			Title:        updated.Title,
			Price:        updated.Price,
			PropertyType: updated.PropertyType,
			ListingType:  updated.ListingType,
			City:         updated.Location.City,
			State:        updated.Location.State,
		}); err != nil {
			log.Printf("update property: feed publish failed: %v", err)
		}
	}

	writeData(w, http.StatusOK, updated)
}

// DeleteProperty hard-deletes a listing and its uploaded images.
func DeleteProperty(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, ok := propertyIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid property ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	properties := database.DB.Collection(database.PropertiesCollection)

	var property models.Property
	if err := properties.FindOne(ctx, bson.M{"_id": id}).Decode(&property); err != nil {
		if err == mongo.ErrNoDocuments {
			writeMessage(w, http.StatusNotFound, "Property not found")
			return
		}
		log.Printf("delete property: lookup failed: %v", err)
		writeServerError(w)
		return
	}
	if !canMutate(claims, &property) {
		writeMessage(w, http.StatusForbidden, "Not authorized to delete this property")
		return
	}

	if _, err := properties.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		log.Printf("delete property: delete failed: %v", err)
		writeServerError(w)
		return
	}

	// Best-effort asset cleanup after the document is gone.
	if cloudinaryService != nil {
		for _, img := range property.Images {
			if err := cloudinaryService.DestroyImage(ctx, img.PublicID); err != nil {
				log.Printf("delete property: destroy image %s: %v", img.PublicID, err)
			}
		}
	}

	writeMessage(w, http.StatusOK, "Property deleted successfully")
}

// GetMyProperties returns the caller's own listings, newest first.
func GetMyProperties(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := database.DB.Collection(database.PropertiesCollection).Find(ctx, bson.M{"owner": claims.UserID}, findOptions)
	if err != nil {
		log.Printf("my properties: find failed: %v", err)
		writeServerError(w)
		return
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		log.Printf("my properties: decode failed: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusOK, properties)
}

// removedImages returns the images present in current but absent from survivors.
func removedImages(current, survivors []models.Image) []models.Image {
	surviving := make(map[string]bool, len(survivors))
	for _, img := range survivors {
		surviving[img.PublicID] = true
	}
	var removed []models.Image
	for _, img := range current {
		if !surviving[img.PublicID] {
			removed = append(removed, img)
		}
	}
	return removed
}

func featureKey(field string) string {
	switch field {
	case "squareFeet":
		return "square_feet"
	case "yearBuilt":
		return "year_built"
	default:
		return field
	}
}
