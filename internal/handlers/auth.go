package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dwellio/dwellio-backend/internal/database"
	"github.com/dwellio/dwellio-backend/internal/middleware"
	"github.com/dwellio/dwellio-backend/internal/models"
	"github.com/dwellio/dwellio-backend/internal/services"
	"github.com/dwellio/dwellio-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthData is the payload returned by register and login.
type AuthData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
	Token  string `json:"token"`
}

// Register creates a new user account and returns a bearer token.
func Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	var errs []services.FieldError
	if n := utf8.RuneCountInString(req.Name); n < 2 || n > 50 {
		errs = append(errs, services.FieldError{Field: "name", Message: "Name must be between 2 and 50 characters"})
	}
	if !validEmail(req.Email) {
		errs = append(errs, services.FieldError{Field: "email", Message: "Please provide a valid email"})
	}
	if len(req.Password) < 6 {
		errs = append(errs, services.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if req.Role == "" {
		req.Role = models.RoleBuyer
	}
	if req.Role != models.RoleBuyer && req.Role != models.RoleSeller {
		errs = append(errs, services.FieldError{Field: "role", Message: "Role must be either buyer or seller"})
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users := database.DB.Collection(database.UsersCollection)

	count, err := users.CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		log.Printf("register: email lookup failed: %v", err)
		writeServerError(w)
		return
	}
	if count > 0 {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("register: password hash failed: %v", err)
		writeServerError(w)
		return
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashed,
		Role:      req.Role,
		Phone:     strings.TrimSpace(req.Phone),
	}

	if _, err := users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			writeMessage(w, http.StatusBadRequest, "User already exists")
			return
		}
		log.Printf("register: insert failed: %v", err)
		writeServerError(w)
		return
	}

	token, err := services.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Printf("register: token generation failed: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusCreated, AuthData{
		ID:    user.ID.Hex(),
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}

// Login verifies credentials and returns a bearer token.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = normalizeEmail(req.Email)

	var errs []services.FieldError
	if !validEmail(req.Email) {
		errs = append(errs, services.FieldError{Field: "email", Message: "Please provide a valid email"})
	}
	if req.Password == "" {
		errs = append(errs, services.FieldError{Field: "password", Message: "Password is required"})
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := database.DB.Collection(database.UsersCollection).FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("login: user lookup failed: %v", err)
		writeServerError(w)
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := services.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Printf("login: token generation failed: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusOK, AuthData{
		ID:     user.ID.Hex(),
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Avatar: user.Avatar,
		Token:  token,
	})
}

// GetMe returns the authenticated caller's user record.
func GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := database.DB.Collection(database.UsersCollection).FindOne(ctx, bson.M{"_id": claims.UserID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("me: user lookup failed: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`

	// Buyer fields
	PreferredPropertyType *string `json:"preferredPropertyType"`
	BudgetRange           *string `json:"budgetRange"`
	PreferredLocation     *string `json:"preferredLocation"`

	// Seller fields
	CompanyName    *string `json:"companyName"`
	LicenseNumber  *string `json:"licenseNumber"`
	Experience     *string `json:"experience"`
	Specialization *string `json:"specialization"`
}

var experienceLevels = []string{"beginner", "intermediate", "experienced", "expert"}

// UpdateProfile updates the caller's profile. Buyer and seller specific
// fields only apply to callers holding that role.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []services.FieldError
	update := bson.M{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
			errs = append(errs, services.FieldError{Field: "name", Message: "Name must be between 2 and 50 characters"})
		} else {
			update["name"] = name
		}
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if !validEmail(email) {
			errs = append(errs, services.FieldError{Field: "email", Message: "Please provide a valid email"})
		} else {
			update["email"] = email
		}
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if n := utf8.RuneCountInString(phone); n < 10 || n > 15 {
			errs = append(errs, services.FieldError{Field: "phone", Message: "Phone number must be between 10 and 15 characters"})
		} else {
			update["phone"] = phone
		}
	}

	if claims.Role == models.RoleBuyer {
		if req.PreferredPropertyType != nil {
			if !models.ValidEnum(*req.PreferredPropertyType, models.PropertyTypes) {
				errs = append(errs, services.FieldError{Field: "preferredPropertyType", Message: "Invalid property type"})
			} else {
				update["preferred_property_type"] = *req.PreferredPropertyType
			}
		}
		if req.BudgetRange != nil {
			update["budget_range"] = strings.TrimSpace(*req.BudgetRange)
		}
		if req.PreferredLocation != nil {
			loc := strings.TrimSpace(*req.PreferredLocation)
			if utf8.RuneCountInString(loc) > 100 {
				errs = append(errs, services.FieldError{Field: "preferredLocation", Message: "Location cannot be more than 100 characters"})
			} else {
				update["preferred_location"] = loc
			}
		}
	}

	if claims.Role == models.RoleSeller {
		if req.CompanyName != nil {
			name := strings.TrimSpace(*req.CompanyName)
			if utf8.RuneCountInString(name) > 100 {
				errs = append(errs, services.FieldError{Field: "companyName", Message: "Company name cannot be more than 100 characters"})
			} else {
				update["company_name"] = name
			}
		}
		if req.LicenseNumber != nil {
			num := strings.TrimSpace(*req.LicenseNumber)
			if utf8.RuneCountInString(num) > 50 {
				errs = append(errs, services.FieldError{Field: "licenseNumber", Message: "License number cannot be more than 50 characters"})
			} else {
				update["license_number"] = num
			}
		}
		if req.Experience != nil {
			if !models.ValidEnum(*req.Experience, experienceLevels) {
				errs = append(errs, services.FieldError{Field: "experience", Message: "Invalid experience level"})
			} else {
				update["experience"] = *req.Experience
			}
		}
		if req.Specialization != nil {
			spec := strings.TrimSpace(*req.Specialization)
			if utf8.RuneCountInString(spec) > 100 {
				errs = append(errs, services.FieldError{Field: "specialization", Message: "Specialization cannot be more than 100 characters"})
			} else {
				update["specialization"] = spec
			}
		}
	}

	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}
	if len(update) == 0 {
		writeMessage(w, http.StatusBadRequest, "No valid fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users := database.DB.Collection(database.UsersCollection)

	if email, ok := update["email"]; ok {
		count, err := users.CountDocuments(ctx, bson.M{"email": email, "_id": bson.M{"$ne": claims.UserID}})
		if err != nil {
			log.Printf("profile: email lookup failed: %v", err)
			writeServerError(w)
			return
		}
		if count > 0 {
			writeMessage(w, http.StatusBadRequest, "Email already exists")
			return
		}
	}

	update["updated_at"] = time.Now()

	var user models.User
	err := users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": claims.UserID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("profile: update failed: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusOK, user)
}

// Logout acknowledges a logout. Tokens are stateless; the client discards its copy.
func Logout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Logged out successfully")
}
