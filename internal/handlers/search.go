package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dwellio/dwellio-backend/internal/database"
	"github.com/dwellio/dwellio-backend/internal/models"
	"github.com/dwellio/dwellio-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListingsPage is the paginated search response payload.
type ListingsPage struct {
	Properties []models.Property `json:"properties"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Total      int64             `json:"total"`
	Pages      int64             `json:"pages"`
}

// ListProperties is the public filtered/paginated listing search. Only
// active listings are returned, newest first. An empty result set is a
// 200 with total 0, not an error.
func ListProperties(w http.ResponseWriter, r *http.Request) {
	query, errs := services.ParseListingQuery(r.URL.Query())
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cacheKey := services.SearchCacheKey(services.SearchCachePrefix, query.CacheParams())
	var cached ListingsPage
	if hit, err := services.GetCached(ctx, cacheKey, &cached); err == nil && hit {
		writeData(w, http.StatusOK, cached)
		return
	}

	properties := database.DB.Collection(database.PropertiesCollection)
	filter := query.Filter()

	total, err := properties.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("list properties: count failed: %v", err)
		writeServerError(w)
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(query.Skip()).
		SetLimit(int64(query.PageSize))

	cursor, err := properties.Find(ctx, filter, findOptions)
	if err != nil {
		log.Printf("list properties: find failed: %v", err)
		writeServerError(w)
		return
	}
	defer cursor.Close(ctx)

	results := []models.Property{}
	if err := cursor.All(ctx, &results); err != nil {
		log.Printf("list properties: decode failed: %v", err)
		writeServerError(w)
		return
	}

	page := ListingsPage{
		Properties: results,
		Page:       query.Page,
		PageSize:   query.PageSize,
		Total:      total,
		Pages:      services.TotalPages(total, query.PageSize),
	}

	if err := services.SetCached(ctx, cacheKey, page, services.SearchCacheTTL); err != nil {
		log.Printf("list properties: cache set failed: %v", err)
	}

	writeData(w, http.StatusOK, page)
}
