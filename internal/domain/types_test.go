package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimaryImageFallsBackToFirstBySortOrder(t *testing.T) {
	d := &ListingDetail{Images: []Image{
		{ID: 2, URL: "/b.jpg", SortOrder: 2},
		{ID: 1, URL: "/a.jpg", SortOrder: 1},
	}}
	require.NotNil(t, d.PrimaryImage())
	assert.Equal(t, int64(1), d.PrimaryImage().ID)

	d.Images[0].IsPrimary = true
	assert.Equal(t, int64(2), d.PrimaryImage().ID)

	assert.Nil(t, (&ListingDetail{}).PrimaryImage())
}

func TestTimestampAcceptsLocalDateTime(t *testing.T) {
	var d ListingDetail
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"createdAt":"2025-01-15T10:30:00.123456","updatedAt":"2025-01-15T10:30:00"}`), &d))

	require.NotNil(t, d.CreatedAt)
	want := time.Date(2025, 1, 15, 10, 30, 0, 123456000, time.Local)
	assert.True(t, want.Equal(d.CreatedAt.Time), d.CreatedAt.Time)
	require.NotNil(t, d.UpdatedAt)
	assert.Equal(t, 0, d.UpdatedAt.Nanosecond())
}

func TestTimestampAcceptsRFC3339(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-15T10:30:00Z"`), &ts))
	assert.True(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC).Equal(ts.Time))
}

func TestTimestampNullAndGarbage(t *testing.T) {
	var l Listing
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"createdAt":null}`), &l))
	assert.Nil(t, l.CreatedAt)

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestSummaryCarriesCreatedAt(t *testing.T) {
	created := &Timestamp{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)}
	d := &ListingDetail{ID: 3, CreatedAt: created, ImageURL: "/x.jpg"}

	s := d.Summary()
	assert.Same(t, created, s.CreatedAt)
	require.NotNil(t, s.ThumbnailURL)
	assert.Equal(t, "/x.jpg", *s.ThumbnailURL)
}
