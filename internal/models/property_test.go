package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPrimaryImage(t *testing.T) {
	t.Run("Flagged Primary Wins", func(t *testing.T) {
		p := Property{Images: []Image{
			{URL: "a.jpg"},
			{URL: "b.jpg", IsPrimary: true},
		}}
		assert.Equal(t, "b.jpg", p.PrimaryImage())
	})

	t.Run("Falls Back To First", func(t *testing.T) {
		p := Property{Images: []Image{{URL: "a.jpg"}, {URL: "b.jpg"}}}
		assert.Equal(t, "a.jpg", p.PrimaryImage())
	})

	t.Run("No Images", func(t *testing.T) {
		p := Property{}
		assert.Equal(t, "", p.PrimaryImage())
	})
}

func TestIsFavoritedBy(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	p := Property{Favorites: []primitive.ObjectID{alice}}

	assert.True(t, p.IsFavoritedBy(alice))
	assert.False(t, p.IsFavoritedBy(bob))
	assert.False(t, (&Property{}).IsFavoritedBy(alice))
}

func TestValidEnum(t *testing.T) {
	assert.True(t, ValidEnum("house", PropertyTypes))
	assert.True(t, ValidEnum("rent", ListingTypes))
	assert.False(t, ValidEnum("castle", PropertyTypes))
	assert.False(t, ValidEnum("", ListingTypes))
	assert.False(t, ValidEnum("HOUSE", PropertyTypes))
}
