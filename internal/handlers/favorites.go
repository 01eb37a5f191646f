package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dwellio/dwellio-backend/internal/database"
	"github.com/dwellio/dwellio-backend/internal/middleware"
	"github.com/dwellio/dwellio-backend/internal/models"
	"github.com/dwellio/dwellio-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FavoriteState reports the result of a toggle.
type FavoriteState struct {
	IsFavorited    bool `json:"isFavorited"`
	FavoritesCount int  `json:"favoritesCount"`
}

// ToggleFavorite flips the caller's favorite on a listing: present removes,
// absent adds. The add/remove itself is an atomic $addToSet/$pull so the
// at-most-once invariant holds even under concurrent toggles.
func ToggleFavorite(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	properties := database.DB.Collection(database.PropertiesCollection)

	var current models.Property
	err := properties.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"favorites": 1}),
	).Decode(&current)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			writeMessage(w, http.StatusNotFound, "Property not found")
			return
		}
		log.Printf("favorite: lookup failed: %v", err)
		writeServerError(w)
		return
	}

	update, _ := services.ToggleFavoriteUpdate(&current, claims.UserID)

	var updated models.Property
	err = properties.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"favorites": 1}),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			writeMessage(w, http.StatusNotFound, "Property not found")
			return
		}
		log.Printf("favorite: update failed: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusOK, FavoriteState{
		IsFavorited:    updated.IsFavoritedBy(claims.UserID),
		FavoritesCount: len(updated.Favorites),
	})
}

// GetFavorites returns the listings the caller has favorited, newest first.
func GetFavorites(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := database.DB.Collection(database.PropertiesCollection).Find(ctx, bson.M{"favorites": claims.UserID}, findOptions)
	if err != nil {
		log.Printf("favorites: find failed: %v", err)
		writeServerError(w)
		return
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		log.Printf("favorites: decode failed: %v", err)
		writeServerError(w)
		return
	}

	writeData(w, http.StatusOK, properties)
}
