package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 12
	DefaultSort     = "createdAt,desc"
)

// FilterField names a user-editable search constraint. The names double as
// query parameter names on the backend and in navigable URLs.
type FilterField string

const (
	FieldCity            FilterField = "city"
	FieldPropertyType    FilterField = "propertyType"
	FieldTransactionType FilterField = "transactionType"
	FieldMinPrice        FilterField = "minPrice"
	FieldMaxPrice        FilterField = "maxPrice"
	FieldMinArea         FilterField = "minArea"
	FieldMaxArea         FilterField = "maxArea"
	FieldBedrooms        FilterField = "bedrooms"
	FieldSort            FilterField = "sort"
)

// FilterFields lists every editable field in serialization order.
var FilterFields = []FilterField{
	FieldCity,
	FieldPropertyType,
	FieldTransactionType,
	FieldMinPrice,
	FieldMaxPrice,
	FieldMinArea,
	FieldMaxArea,
	FieldBedrooms,
	FieldSort,
}

// Filter is the search state. Nil pointers and empty strings mean "absent".
type Filter struct {
	City            string
	PropertyType    PropertyType
	TransactionType TransactionType
	MinPrice        *float64
	MaxPrice        *float64
	MinArea         *float64
	MaxArea         *float64
	Bedrooms        *int
	Page            int
	Size            int
	Sort            string
}

// Get returns the string form of field, or "" when it is absent.
func (f *Filter) Get(field FilterField) string {
	switch field {
	case FieldCity:
		return f.City
	case FieldPropertyType:
		return string(f.PropertyType)
	case FieldTransactionType:
		return string(f.TransactionType)
	case FieldMinPrice:
		return formatFloat(f.MinPrice)
	case FieldMaxPrice:
		return formatFloat(f.MaxPrice)
	case FieldMinArea:
		return formatFloat(f.MinArea)
	case FieldMaxArea:
		return formatFloat(f.MaxArea)
	case FieldBedrooms:
		if f.Bedrooms == nil {
			return ""
		}
		return strconv.Itoa(*f.Bedrooms)
	case FieldSort:
		return f.Sort
	}
	return ""
}

// Set parses raw into field. A blank raw value clears the field.
func (f *Filter) Set(field FilterField, raw string) error {
	raw = strings.TrimSpace(raw)
	switch field {
	case FieldCity:
		f.City = raw
	case FieldPropertyType:
		pt, err := ParsePropertyType(raw)
		if err != nil {
			return err
		}
		f.PropertyType = pt
	case FieldTransactionType:
		tt, err := ParseTransactionType(raw)
		if err != nil {
			return err
		}
		f.TransactionType = tt
	case FieldMinPrice:
		return parseFloatInto(&f.MinPrice, field, raw)
	case FieldMaxPrice:
		return parseFloatInto(&f.MaxPrice, field, raw)
	case FieldMinArea:
		return parseFloatInto(&f.MinArea, field, raw)
	case FieldMaxArea:
		return parseFloatInto(&f.MaxArea, field, raw)
	case FieldBedrooms:
		if raw == "" {
			f.Bedrooms = nil
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s %q", field, raw)
		}
		f.Bedrooms = &n
	case FieldSort:
		f.Sort = raw
	default:
		return fmt.Errorf("unknown filter field %q", field)
	}
	return nil
}

// Normalized returns a copy with the page and size defaults applied.
func (f Filter) Normalized() Filter {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 {
		f.Size = DefaultPageSize
	}
	return f
}

// SameCriteria reports whether both filters select the same result set,
// ignoring page position.
func (f Filter) SameCriteria(other Filter) bool {
	for _, field := range FilterFields {
		if f.Get(field) != other.Get(field) {
			return false
		}
	}
	return f.Normalized().Size == other.Normalized().Size
}

func ParsePropertyType(raw string) (PropertyType, error) {
	switch pt := PropertyType(strings.ToUpper(raw)); pt {
	case "", PropertyApartment, PropertyHouse, PropertyLand, PropertyCommercial:
		return pt, nil
	}
	return "", fmt.Errorf("invalid property type %q", raw)
}

func ParseTransactionType(raw string) (TransactionType, error) {
	switch tt := TransactionType(strings.ToUpper(raw)); tt {
	case "", TransactionSale, TransactionRent:
		return tt, nil
	}
	return "", fmt.Errorf("invalid transaction type %q", raw)
}

func parseFloatInto(dst **float64, field FilterField, raw string) error {
	if raw == "" {
		*dst = nil
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || v < 0 {
		return fmt.Errorf("invalid %s %q", field, raw)
	}
	*dst = &v
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
