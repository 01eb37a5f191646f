package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseListingQuery(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		q, errs := ParseListingQuery(url.Values{})
		assert.Empty(t, errs)
		assert.Equal(t, DefaultPage, q.Page)
		assert.Equal(t, DefaultPageSize, q.PageSize)
		assert.Nil(t, q.MinPrice)
		assert.Nil(t, q.MaxPrice)
		assert.Empty(t, q.PropertyType)
	})

	t.Run("Valid Full Query", func(t *testing.T) {
		values := url.Values{}
		values.Set("page", "3")
		values.Set("pageSize", "25")
		values.Set("minPrice", "400000")
		values.Set("maxPrice", "600000")
		values.Set("propertyType", "house")
		values.Set("listingType", "sale")
		values.Set("city", "austin")
		values.Set("state", "tx")
		values.Set("minBedrooms", "2")
		values.Set("minBathrooms", "1")
		values.Set("search", "lake view")

		q, errs := ParseListingQuery(values)
		require.Empty(t, errs)
		assert.Equal(t, 3, q.Page)
		assert.Equal(t, 25, q.PageSize)
		require.NotNil(t, q.MinPrice)
		assert.Equal(t, 400000.0, *q.MinPrice)
		require.NotNil(t, q.MaxPrice)
		assert.Equal(t, 600000.0, *q.MaxPrice)
		assert.Equal(t, "house", q.PropertyType)
		assert.Equal(t, "sale", q.ListingType)
		assert.Equal(t, "austin", q.City)
		assert.Equal(t, "tx", q.State)
		require.NotNil(t, q.MinBedrooms)
		assert.Equal(t, 2, *q.MinBedrooms)
		assert.Equal(t, "lake view", q.Search)
	})

	t.Run("Invalid Values Are Rejected Not Clamped", func(t *testing.T) {
		cases := map[string][2]string{
			"zero page":          {"page", "0"},
			"negative page":      {"page", "-1"},
			"non-integer page":   {"page", "two"},
			"fractional page":    {"page", "1.5"},
			"zero pageSize":      {"pageSize", "0"},
			"oversized pageSize": {"pageSize", "51"},
			"negative minPrice":  {"minPrice", "-5"},
			"bad maxPrice":       {"maxPrice", "cheap"},
			"bad minBedrooms":    {"minBedrooms", "-2"},
			"bad minBathrooms":   {"minBathrooms", "x"},
			"bad propertyType":   {"propertyType", "castle"},
			"bad listingType":    {"listingType", "lease"},
		}
		for name, kv := range cases {
			values := url.Values{}
			values.Set(kv[0], kv[1])
			_, errs := ParseListingQuery(values)
			require.Len(t, errs, 1, name)
			assert.Equal(t, kv[0], errs[0].Field, name)
		}
	})

	t.Run("Max PageSize Accepted", func(t *testing.T) {
		values := url.Values{}
		values.Set("pageSize", "50")
		q, errs := ParseListingQuery(values)
		assert.Empty(t, errs)
		assert.Equal(t, 50, q.PageSize)
	})
}

func TestListingQueryFilter(t *testing.T) {
	t.Run("Always Restricts To Active", func(t *testing.T) {
		filter := (ListingQuery{Page: 1, PageSize: 10}).Filter()
		assert.Equal(t, bson.M{"is_active": true}, filter)
	})

	t.Run("Price Bounds Are Inclusive And Merged", func(t *testing.T) {
		min, max := 100.0, 200.0

		filter := (ListingQuery{MinPrice: &min, MaxPrice: &max}).Filter()
		assert.Equal(t, bson.M{"$gte": min, "$lte": max}, filter["price"])

		filter = (ListingQuery{MinPrice: &min}).Filter()
		assert.Equal(t, bson.M{"$gte": min}, filter["price"])

		filter = (ListingQuery{MaxPrice: &max}).Filter()
		assert.Equal(t, bson.M{"$lte": max}, filter["price"])
	})

	t.Run("Absent Bounds Are Omitted", func(t *testing.T) {
		filter := (ListingQuery{}).Filter()
		_, hasPrice := filter["price"]
		assert.False(t, hasPrice)
	})

	t.Run("City And State Are Case Insensitive Substring Matches", func(t *testing.T) {
		filter := (ListingQuery{City: "Austin", State: "TX"}).Filter()
		assert.Equal(t, bson.M{"$regex": "Austin", "$options": "i"}, filter["location.city"])
		assert.Equal(t, bson.M{"$regex": "TX", "$options": "i"}, filter["location.state"])
	})

	t.Run("Regex Metacharacters Are Escaped", func(t *testing.T) {
		filter := (ListingQuery{City: "St. Louis"}).Filter()
		assert.Equal(t, bson.M{"$regex": `St\. Louis`, "$options": "i"}, filter["location.city"])
	})

	t.Run("Text Search ANDs With Other Filters", func(t *testing.T) {
		min := 400000.0
		bedrooms := 2
		q := ListingQuery{
			Search:       "lake view",
			City:         "austin",
			PropertyType: "house",
			ListingType:  "sale",
			MinPrice:     &min,
			MinBedrooms:  &bedrooms,
		}
		filter := q.Filter()
		assert.Equal(t, bson.M{"$search": "lake view"}, filter["$text"])
		assert.Equal(t, bson.M{"$regex": "austin", "$options": "i"}, filter["location.city"])
		assert.Equal(t, "house", filter["property_type"])
		assert.Equal(t, "sale", filter["listing_type"])
		assert.Equal(t, bson.M{"$gte": min}, filter["price"])
		assert.Equal(t, bson.M{"$gte": bedrooms}, filter["features.bedrooms"])
		assert.Equal(t, true, filter["is_active"])
	})
}

func TestPagination(t *testing.T) {
	t.Run("Skip", func(t *testing.T) {
		assert.Equal(t, int64(0), (ListingQuery{Page: 1, PageSize: 10}).Skip())
		assert.Equal(t, int64(10), (ListingQuery{Page: 2, PageSize: 10}).Skip())
		assert.Equal(t, int64(100), (ListingQuery{Page: 3, PageSize: 50}).Skip())
	})

	t.Run("TotalPages Is Ceil", func(t *testing.T) {
		assert.Equal(t, int64(0), TotalPages(0, 10))
		assert.Equal(t, int64(1), TotalPages(1, 10))
		assert.Equal(t, int64(1), TotalPages(10, 10))
		assert.Equal(t, int64(2), TotalPages(11, 10))
		assert.Equal(t, int64(3), TotalPages(101, 50))
	})

	t.Run("TotalPages Invariant", func(t *testing.T) {
		for total := int64(0); total <= 120; total++ {
			for _, pageSize := range []int{1, 7, 10, 50} {
				pages := TotalPages(total, pageSize)
				assert.GreaterOrEqual(t, pages*int64(pageSize), total)
				if pages > 0 {
					assert.Less(t, (pages-1)*int64(pageSize), total)
				}
			}
		}
	})
}

func TestSearchCacheKey(t *testing.T) {
	t.Run("Deterministic Regardless Of Param Order", func(t *testing.T) {
		min := 100.0
		a := ListingQuery{Page: 1, PageSize: 10, City: "Austin", MinPrice: &min}
		b := ListingQuery{MinPrice: &min, City: "AUSTIN", PageSize: 10, Page: 1}
		keyA := SearchCacheKey(SearchCachePrefix, a.CacheParams())
		keyB := SearchCacheKey(SearchCachePrefix, b.CacheParams())
		assert.Equal(t, keyA, keyB)
	})

	t.Run("Distinct Queries Get Distinct Keys", func(t *testing.T) {
		a := ListingQuery{Page: 1, PageSize: 10}
		b := ListingQuery{Page: 2, PageSize: 10}
		assert.NotEqual(t,
			SearchCacheKey(SearchCachePrefix, a.CacheParams()),
			SearchCacheKey(SearchCachePrefix, b.CacheParams()),
		)
	})
}
