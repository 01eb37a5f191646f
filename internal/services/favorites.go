package services

import (
	"github.com/dwellio/dwellio-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToggleFavoriteUpdate decides the atomic update for a favorite toggle:
// present removes, absent adds. Returns the update document and whether the
// listing is favorited once the update applies.
func ToggleFavoriteUpdate(p *models.Property, userID primitive.ObjectID) (bson.M, bool) {
	if p.IsFavoritedBy(userID) {
		return bson.M{"$pull": bson.M{"favorites": userID}}, false
	}
	return bson.M{"$addToSet": bson.M{"favorites": userID}}, true
}
