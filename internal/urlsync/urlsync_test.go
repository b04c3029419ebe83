package urlsync

import (
	"net/url"
	"testing"

	"github.com/induohouse/induoweb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOmitsDefaults(t *testing.T) {
	q := Encode(domain.Filter{City: "Warszawa", PropertyType: domain.PropertyHouse, Size: 12, Sort: domain.DefaultSort})
	assert.Equal(t, "city=Warszawa&propertyType=HOUSE", q.Encode())
}

func TestEncodeIncludesPageAfterFirst(t *testing.T) {
	q := Encode(domain.Filter{City: "Warszawa", PropertyType: domain.PropertyHouse, Page: 2})
	assert.Equal(t, "2", q.Get("page"))
	assert.False(t, q.Has("size"))
}

func TestReplace(t *testing.T) {
	assert.Equal(t, "/properties", Replace("/properties", domain.Filter{}))
	assert.Equal(t, "/properties?city=Krak%C3%B3w&sort=price%2Casc", Replace("/properties", domain.Filter{City: "Kraków", Sort: "price,asc"}))
}

func TestSeedRoundTrip(t *testing.T) {
	minPrice := 250000.0
	rooms := 3
	want := domain.Filter{
		City:            "Gdańsk",
		TransactionType: domain.TransactionRent,
		MinPrice:        &minPrice,
		Bedrooms:        &rooms,
		Page:            4,
		Size:            24,
		Sort:            "price,asc",
	}

	got := Seed(Encode(want))
	assert.True(t, want.SameCriteria(got))
	assert.Equal(t, 4, got.Page)
	assert.Equal(t, 24, got.Size)
}

func TestSeedDropsInvalidValues(t *testing.T) {
	q, err := url.ParseQuery("city=Pozna%C5%84&propertyType=CASTLE&minPrice=abc&bedrooms=-2&page=-1")
	require.NoError(t, err)

	f := Seed(q)
	assert.Equal(t, "Poznań", f.City)
	assert.Empty(t, f.PropertyType)
	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.Bedrooms)
	assert.Equal(t, 0, f.Page)
	assert.Equal(t, domain.DefaultPageSize, f.Size)
}
