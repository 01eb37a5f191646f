package services

import (
	"testing"

	"github.com/dwellio/dwellio-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// applyFavoriteUpdate mirrors how the store applies the $addToSet/$pull
// operators to the favorites array.
func applyFavoriteUpdate(t *testing.T, p *models.Property, update bson.M) {
	t.Helper()
	if op, ok := update["$addToSet"]; ok {
		id := op.(bson.M)["favorites"].(primitive.ObjectID)
		if !p.IsFavoritedBy(id) {
			p.Favorites = append(p.Favorites, id)
		}
		return
	}
	if op, ok := update["$pull"]; ok {
		id := op.(bson.M)["favorites"].(primitive.ObjectID)
		kept := p.Favorites[:0]
		for _, fav := range p.Favorites {
			if fav != id {
				kept = append(kept, fav)
			}
		}
		p.Favorites = kept
		return
	}
	t.Fatalf("unexpected update document: %v", update)
}

func TestToggleFavoriteUpdate(t *testing.T) {
	user := primitive.NewObjectID()
	other := primitive.NewObjectID()

	t.Run("Absent Adds", func(t *testing.T) {
		p := &models.Property{Favorites: []primitive.ObjectID{other}}
		update, favorited := ToggleFavoriteUpdate(p, user)
		assert.True(t, favorited)
		assert.Equal(t, bson.M{"$addToSet": bson.M{"favorites": user}}, update)
	})

	t.Run("Present Removes", func(t *testing.T) {
		p := &models.Property{Favorites: []primitive.ObjectID{other, user}}
		update, favorited := ToggleFavoriteUpdate(p, user)
		assert.False(t, favorited)
		assert.Equal(t, bson.M{"$pull": bson.M{"favorites": user}}, update)
	})

	t.Run("Double Toggle Restores Original State", func(t *testing.T) {
		p := &models.Property{Favorites: []primitive.ObjectID{other}}

		update, favorited := ToggleFavoriteUpdate(p, user)
		applyFavoriteUpdate(t, p, update)
		require.True(t, favorited)
		require.True(t, p.IsFavoritedBy(user))

		update, favorited = ToggleFavoriteUpdate(p, user)
		applyFavoriteUpdate(t, p, update)
		require.False(t, favorited)

		assert.False(t, p.IsFavoritedBy(user))
		assert.Equal(t, []primitive.ObjectID{other}, p.Favorites)
	})

	t.Run("Other Users Are Untouched", func(t *testing.T) {
		p := &models.Property{Favorites: []primitive.ObjectID{other}}
		update, _ := ToggleFavoriteUpdate(p, user)
		applyFavoriteUpdate(t, p, update)
		assert.True(t, p.IsFavoritedBy(other))
	})
}
