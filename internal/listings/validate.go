package listings

import (
	"regexp"
	"strings"

	"github.com/induohouse/induoweb/internal/domain"
)

var postalCodePattern = regexp.MustCompile(`^\d{2}-\d{3}$`)

// ValidateDraft checks a listing form before it is sent. The result maps a
// form field name to its message and is empty when the draft is valid.
func ValidateDraft(d domain.ListingDraft) map[string]string {
	errs := map[string]string{}
	required := map[string]string{
		"title":       d.Title,
		"description": d.Description,
		"city":        d.City,
		"street":      d.Street,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			errs[field] = "Pole jest wymagane"
		}
	}
	if d.Price <= 0 {
		errs["price"] = "Podaj cenę większą od zera"
	}
	if d.Area <= 0 {
		errs["area"] = "Podaj powierzchnię większą od zera"
	}
	if !postalCodePattern.MatchString(strings.TrimSpace(d.PostalCode)) {
		errs["postalCode"] = "Kod pocztowy w formacie 00-000"
	}
	if _, err := domain.ParsePropertyType(string(d.PropertyType)); err != nil || d.PropertyType == "" {
		errs["propertyType"] = "Wybierz typ nieruchomości"
	}
	if _, err := domain.ParseTransactionType(string(d.TransactionType)); err != nil || d.TransactionType == "" {
		errs["transactionType"] = "Wybierz rodzaj transakcji"
	}
	if d.Floor != nil && d.TotalFloors != nil && *d.Floor > *d.TotalFloors {
		errs["floor"] = "Piętro nie może być wyższe niż liczba pięter"
	}
	return errs
}
