package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/listings"
	"github.com/induohouse/induoweb/internal/service"
)

const maxUploadSize = 50 * 1024 * 1024 // 50 MB for the whole form

// listingForm is the create/edit form state, re-rendered on errors.
type listingForm struct {
	ID      int64
	Action  string
	Title   string
	Values  map[string]string
	Errors  map[string]string
	Message string
	Images  []domain.Image
}

func (s *Server) handleListingDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.renderNotFound(w, r)
		return
	}

	v := visitorFrom(r)
	view, err := s.catalog.GetListing(r.Context(), v, id)
	if err != nil {
		if service.IsNotFound(err) {
			s.renderNotFound(w, r)
			return
		}
		s.logger.Error("get listing failed", "listing_id", id, "error", err)
		data := s.pageData(r, "properties")
		data["Message"] = listings.UserMessage(err, listings.MsgLoadFailed)
		data["RetryURL"] = r.URL.Path
		if err := s.renderPageStatus(w, http.StatusBadGateway, data, "base.html", "pages/error.html"); err != nil {
			s.logger.Error("render page failed", "error", err)
		}
		return
	}

	data := s.pageData(r, "properties")
	data["Listing"] = view.Detail
	data["Images"] = view.Detail.SortedImages()
	data["Primary"] = view.Detail.PrimaryImage()
	data["Fav"] = cardView{Listing: domain.Listing{ID: id}, Favorite: view.Favorite}
	data["Similar"] = view.Similar
	data["CanManage"] = canManage(data["User"].(*domain.User), view.Detail)
	if err := s.renderPage(w, data,
		"base.html", "pages/property_detail.html", "partials/listing_card.html", "partials/favorite_button.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request) {
	data := s.pageData(r, "properties")
	data["Message"] = listings.MsgNotFound
	if err := s.renderPageStatus(w, http.StatusNotFound, data, "base.html", "pages/not_found.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleNewListing(w http.ResponseWriter, r *http.Request) {
	form := listingForm{Action: "/properties", Title: "Dodaj ogłoszenie", Values: map[string]string{
		"propertyType":    string(domain.PropertyApartment),
		"transactionType": string(domain.TransactionSale),
	}}
	s.renderListingForm(w, r, http.StatusOK, form)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	draft, values := draftFromForm(r)
	form := listingForm{Action: "/properties", Title: "Dodaj ogłoszenie", Values: values}
	form.Errors = listings.ValidateDraft(draft)

	images, err := s.readImages(r, "images")
	if err != nil {
		form.Errors["images"] = err.Error()
	}
	if len(form.Errors) > 0 {
		s.renderListingForm(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	primary, _ := strconv.Atoi(r.FormValue("primaryImage"))
	v := visitorFrom(r)
	detail, failed, err := s.catalog.CreateListing(r.Context(), v, draft, images, primary)
	if err != nil {
		if s.signedOut(w, r, err) {
			return
		}
		s.logger.Error("create listing failed", "visitor", v.ID, "error", err)
		form.Message = listings.UserMessage(err, listings.MsgCreateFailed)
		s.renderListingForm(w, r, http.StatusBadGateway, form)
		return
	}

	if failed > 0 {
		v.SetFlash(fmt.Sprintf("Ogłoszenie dodane, ale %d z %d zdjęć nie zostało przesłanych", failed, len(images)))
	} else {
		v.SetFlash("Ogłoszenie dodane")
	}
	redirect(w, r, listingURL(detail.ID))
}

func (s *Server) handleEditListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.renderNotFound(w, r)
		return
	}
	v := visitorFrom(r)
	view, err := s.catalog.GetListing(r.Context(), v, id)
	if err != nil {
		if service.IsNotFound(err) {
			s.renderNotFound(w, r)
			return
		}
		http.Error(w, listings.UserMessage(err, listings.MsgLoadFailed), http.StatusBadGateway)
		return
	}
	if !canManage(userFrom(r), view.Detail) {
		http.Error(w, listings.MsgForbidden, http.StatusForbidden)
		return
	}

	form := listingForm{
		ID:     id,
		Action: listingURL(id),
		Title:  "Edytuj ogłoszenie",
		Values: valuesFromDetail(view.Detail),
		Images: view.Detail.SortedImages(),
	}
	s.renderListingForm(w, r, http.StatusOK, form)
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	draft, values := draftFromForm(r)
	form := listingForm{ID: id, Action: listingURL(id), Title: "Edytuj ogłoszenie", Values: values}
	form.Errors = listings.ValidateDraft(draft)
	if len(form.Errors) > 0 {
		s.renderListingForm(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	v := visitorFrom(r)
	if _, err := s.catalog.UpdateListing(r.Context(), v, id, draft); err != nil {
		if s.signedOut(w, r, err) {
			return
		}
		s.logger.Error("update listing failed", "listing_id", id, "error", err)
		form.Message = listings.UserMessage(err, listings.MsgSaveFailed)
		status := http.StatusBadGateway
		if errors.Is(err, listings.ErrForbidden) {
			status = http.StatusForbidden
		}
		s.renderListingForm(w, r, status, form)
		return
	}

	v.SetFlash("Zapisano zmiany")
	redirect(w, r, listingURL(id))
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}

	v := visitorFrom(r)
	if err := s.catalog.DeleteListing(r.Context(), v, id); err != nil {
		if s.signedOut(w, r, err) {
			return
		}
		s.logger.Error("delete listing failed", "listing_id", id, "error", err)
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, listings.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, listings.ErrNotFound):
			status = http.StatusNotFound
		}
		http.Error(w, listings.UserMessage(err, listings.MsgDeleteFailed), status)
		return
	}

	v.SetFlash("Ogłoszenie usunięte")
	w.Header().Set("HX-Redirect", "/dashboard")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) renderListingForm(w http.ResponseWriter, r *http.Request, status int, form listingForm) {
	data := s.pageData(r, "new")
	data["Form"] = form
	if err := s.renderPageStatus(w, status, data, "base.html", "pages/listing_form.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// draftFromForm reads the listing fields. Unparseable numbers are left at
// zero so validation reports them; the raw values are returned for
// re-rendering.
func draftFromForm(r *http.Request) (domain.ListingDraft, map[string]string) {
	values := map[string]string{}
	for _, k := range []string{
		"title", "description", "price", "area", "city", "street", "postalCode",
		"numberOfRooms", "floor", "totalFloors", "propertyType", "transactionType",
	} {
		values[k] = strings.TrimSpace(r.FormValue(k))
	}

	draft := domain.ListingDraft{
		Title:           values["title"],
		Description:     values["description"],
		Price:           parseAmount(values["price"]),
		Area:            parseAmount(values["area"]),
		City:            values["city"],
		Street:          values["street"],
		PostalCode:      values["postalCode"],
		Rooms:           optionalInt(values["numberOfRooms"]),
		Floor:           optionalInt(values["floor"]),
		TotalFloors:     optionalInt(values["totalFloors"]),
		PropertyType:    domain.PropertyType(strings.ToUpper(values["propertyType"])),
		TransactionType: domain.TransactionType(strings.ToUpper(values["transactionType"])),
	}
	return draft, values
}

func valuesFromDetail(d *domain.ListingDetail) map[string]string {
	return map[string]string{
		"title":           d.Title,
		"description":     d.Description,
		"price":           strconv.FormatFloat(d.Price, 'f', -1, 64),
		"area":            strconv.FormatFloat(d.Area, 'f', -1, 64),
		"city":            d.City,
		"street":          d.Street,
		"postalCode":      d.PostalCode,
		"numberOfRooms":   derefInt(d.Rooms),
		"floor":           derefInt(d.Floor),
		"totalFloors":     derefInt(d.TotalFloors),
		"propertyType":    string(d.PropertyType),
		"transactionType": string(d.TransactionType),
	}
}

func parseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(raw, " ", ""), ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

func optionalInt(raw string) *int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// canManage reports whether user may edit or delete the listing.
func canManage(user *domain.User, d *domain.ListingDetail) bool {
	if user == nil {
		return false
	}
	if user.Role == domain.RoleAdmin {
		return true
	}
	return d.Owner != nil && strings.EqualFold(d.Owner.Email, user.Email)
}

func listingURL(id int64) string {
	return "/properties/" + strconv.FormatInt(id, 10)
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
