package domain

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NewBadgeDays is how long after creation a listing is marked as new.
const NewBadgeDays = 7

var plPrinter = message.NewPrinter(language.Polish)

var propertyTypeLabels = map[PropertyType]string{
	PropertyApartment:  "Mieszkanie",
	PropertyHouse:      "Dom",
	PropertyLand:       "Działka",
	PropertyCommercial: "Komercyjne",
}

var transactionTypeLabels = map[TransactionType]string{
	TransactionSale: "Sprzedaż",
	TransactionRent: "Wynajem",
}

func (p PropertyType) Label() string {
	if l, ok := propertyTypeLabels[p]; ok {
		return l
	}
	return string(p)
}

func (t TransactionType) Label() string {
	if l, ok := transactionTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// PropertyTypes and TransactionTypes list the enum values in display order.
var (
	PropertyTypes    = []PropertyType{PropertyApartment, PropertyHouse, PropertyLand, PropertyCommercial}
	TransactionTypes = []TransactionType{TransactionSale, TransactionRent}
)

// FormatPrice renders an amount in whole złoty with Polish digit grouping.
func FormatPrice(amount float64) string {
	return plPrinter.Sprintf("%d zł", int64(math.Round(amount)))
}

// PricePerSquareMeter returns the rounded price per m², or "" when the area
// is unknown.
func PricePerSquareMeter(price, area float64) string {
	if area <= 0 {
		return ""
	}
	return plPrinter.Sprintf("%d zł/m²", int64(math.Round(price/area)))
}

// IsNew reports whether createdAt falls within NewBadgeDays of now.
func IsNew(createdAt *Timestamp, now time.Time) bool {
	if createdAt == nil {
		return false
	}
	return now.Sub(createdAt.Time) <= NewBadgeDays*24*time.Hour
}

// ResolveImageURL makes backend-relative image paths absolute against origin.
func ResolveImageURL(origin, raw string) string {
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(raw, "/")
}
