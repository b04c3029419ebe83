package domain

import (
	"sort"
)

type PropertyType string

const (
	PropertyApartment  PropertyType = "APARTMENT"
	PropertyHouse      PropertyType = "HOUSE"
	PropertyLand       PropertyType = "LAND"
	PropertyCommercial PropertyType = "COMMERCIAL"
)

type TransactionType string

const (
	TransactionSale TransactionType = "SALE"
	TransactionRent TransactionType = "RENT"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAgent Role = "AGENT"
	RoleAdmin Role = "ADMIN"
)

// Listing is the summary shape returned by the search endpoint.
type Listing struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Price           float64         `json:"price"`
	Area            float64         `json:"area"`
	City            string          `json:"city"`
	Rooms           *int            `json:"numberOfRooms"`
	PropertyType    PropertyType    `json:"propertyType"`
	TransactionType TransactionType `json:"transactionType"`
	Status          string          `json:"status"`
	ThumbnailURL    *string         `json:"thumbnailUrl"`
	OwnerFirstName  string          `json:"ownerFirstName"`
	OwnerLastName   string          `json:"ownerLastName"`
	OwnerPhone      string          `json:"ownerPhoneNumber"`
	// The search endpoint omits createdAt; it is set on cards built from a
	// detail via Summary.
	CreatedAt       *Timestamp      `json:"createdAt,omitempty"`
}

type Image struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
	SortOrder int    `json:"sortOrder"`
}

type Owner struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phoneNumber"`
}

type ListingDetail struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Price           float64         `json:"price"`
	Area            float64         `json:"area"`
	City            string          `json:"city"`
	Street          string          `json:"street"`
	PostalCode      string          `json:"postalCode"`
	Rooms           *int            `json:"numberOfRooms"`
	Floor           *int            `json:"floor"`
	TotalFloors     *int            `json:"totalFloors"`
	PropertyType    PropertyType    `json:"propertyType"`
	TransactionType TransactionType `json:"transactionType"`
	Status          string          `json:"status"`
	ImageURL        string          `json:"imageUrl"`
	Images          []Image         `json:"images"`
	Owner           *Owner          `json:"owner"`
	CreatedAt       *Timestamp      `json:"createdAt"`
	UpdatedAt       *Timestamp      `json:"updatedAt"`
}

// PrimaryImage returns the image flagged primary, falling back to the first
// image by sort order. It returns nil when the listing has no images.
func (d *ListingDetail) PrimaryImage() *Image {
	if len(d.Images) == 0 {
		return nil
	}
	for i := range d.Images {
		if d.Images[i].IsPrimary {
			return &d.Images[i]
		}
	}
	return &d.SortedImages()[0]
}

// SortedImages returns a copy of the images ordered by SortOrder.
func (d *ListingDetail) SortedImages() []Image {
	imgs := make([]Image, len(d.Images))
	copy(imgs, d.Images)
	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].SortOrder < imgs[j].SortOrder })
	return imgs
}

// Summary projects the detail onto the search-card shape.
func (d *ListingDetail) Summary() Listing {
	l := Listing{
		ID:              d.ID,
		Title:           d.Title,
		Price:           d.Price,
		Area:            d.Area,
		City:            d.City,
		Rooms:           d.Rooms,
		PropertyType:    d.PropertyType,
		TransactionType: d.TransactionType,
		Status:          d.Status,
		CreatedAt:       d.CreatedAt,
	}
	if img := d.PrimaryImage(); img != nil {
		u := img.URL
		l.ThumbnailURL = &u
	} else if d.ImageURL != "" {
		u := d.ImageURL
		l.ThumbnailURL = &u
	}
	if d.Owner != nil {
		l.OwnerFirstName = d.Owner.FirstName
		l.OwnerLastName = d.Owner.LastName
		l.OwnerPhone = d.Owner.Phone
	}
	return l
}

// ListingDraft is the create/update payload sent by agents.
type ListingDraft struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Price           float64         `json:"price"`
	Area            float64         `json:"area"`
	City            string          `json:"city"`
	Street          string          `json:"street"`
	PostalCode      string          `json:"postalCode"`
	Rooms           *int            `json:"numberOfRooms"`
	Floor           *int            `json:"floor"`
	TotalFloors     *int            `json:"totalFloors"`
	PropertyType    PropertyType    `json:"propertyType"`
	TransactionType TransactionType `json:"transactionType"`
}

type PageResult struct {
	Content       []Listing
	CurrentPage   int
	PageSize      int
	TotalElements int64
	TotalPages    int
	First         bool
	Last          bool
}

// Empty reports whether the page holds no listings. An empty page is a valid
// "no results" state, not an error.
func (p *PageResult) Empty() bool {
	return len(p.Content) == 0
}

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phoneNumber,omitempty"`
	Role      Role   `json:"role"`
}

// DisplayName prefers the user's full name and falls back to the email.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterCredentials struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phoneNumber,omitempty"`
}

// IsAgent reports whether the user may publish listings.
func (u *User) IsAgent() bool {
	return u.Role == RoleAgent || u.Role == RoleAdmin
}
