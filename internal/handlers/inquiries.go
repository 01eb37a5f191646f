package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dwellio/dwellio-backend/internal/database"
	"github.com/dwellio/dwellio-backend/internal/middleware"
	"github.com/dwellio/dwellio-backend/internal/models"
	"github.com/dwellio/dwellio-backend/internal/services"
	"github.com/dwellio/dwellio-backend/pkg/clientip"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CreateInquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// CreateInquiry records a contact-the-seller message for a listing.
// Public: buyers don't need an account to reach out.
func CreateInquiry(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := propertyIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid property ID")
		return
	}

	var req CreateInquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	var errs []services.FieldError
	if req.Name == "" {
		errs = append(errs, services.FieldError{Field: "name", Message: "Name is required"})
	}
	if !validEmail(req.Email) {
		errs = append(errs, services.FieldError{Field: "email", Message: "Please provide a valid email"})
	}
	if req.Message == "" {
		errs = append(errs, services.FieldError{Field: "message", Message: "Message is required"})
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Resolve the listing owner so the seller can query their inbox.
	var property models.Property
	err := database.DB.Collection(database.PropertiesCollection).FindOne(
		ctx,
		bson.M{"_id": propertyID},
		options.FindOne().SetProjection(bson.M{"owner": 1}),
	).Decode(&property)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			writeMessage(w, http.StatusNotFound, "Property not found")
			return
		}
		log.Printf("inquiry: property lookup failed: %v", err)
		writeServerError(w)
		return
	}

	inquiry := models.Inquiry{
		PropertyID: propertyID.Hex(),
		OwnerID:    property.Owner.Hex(),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      strings.TrimSpace(req.Phone),
		Message:    req.Message,
		IPAddress:  clientip.RealClientIP(r),
	}

	err = database.PostgresDB.QueryRowContext(ctx,
		`INSERT INTO inquiries (property_id, owner_id, name, email, phone, message, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		inquiry.PropertyID, inquiry.OwnerID, inquiry.Name, inquiry.Email,
		inquiry.Phone, inquiry.Message, inquiry.IPAddress,
	).Scan(&inquiry.ID, &inquiry.CreatedAt)
	if err != nil {
		log.Printf("inquiry: insert failed: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusCreated, inquiry)
}

// GetMyInquiries returns inquiries received for the caller's listings,
// newest first. Seller/admin only (enforced at the route).
func GetMyInquiries(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := database.PostgresDB.QueryContext(ctx,
		`SELECT id, created_at, property_id, owner_id, name, email, COALESCE(phone, ''), message
		 FROM inquiries
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`,
		claims.UserID.Hex(),
	)
	if err != nil {
		log.Printf("inquiries: query failed: %v", err)
		writeServerError(w)
		return
	}
	defer rows.Close()

	inquiries := []models.Inquiry{}
	for rows.Next() {
		var inq models.Inquiry
		if err := rows.Scan(&inq.ID, &inq.CreatedAt, &inq.PropertyID, &inq.OwnerID,
			&inq.Name, &inq.Email, &inq.Phone, &inq.Message); err != nil {
			log.Printf("inquiries: scan failed: %v", err)
			writeServerError(w)
			return
		}
		inquiries = append(inquiries, inq)
	}
	if err := rows.Err(); err != nil {
		log.Printf("inquiries: rows failed: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusOK, inquiries)
}
