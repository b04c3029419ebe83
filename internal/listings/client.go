// Package listings is the client for the backend's property endpoints.
package listings

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/induohouse/induoweb/internal/backend"
	"github.com/induohouse/induoweb/internal/domain"
)

type Client struct {
	api *backend.Client
}

func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

// Origin is the backend origin that relative image URLs resolve against.
func (c *Client) Origin() string {
	return c.api.Origin()
}

// Search requests one page of listings matching f. It is retried once on a
// transport failure, never on an HTTP error status. An empty page is a valid
// result.
func (c *Client) Search(ctx context.Context, f domain.Filter) (*domain.PageResult, error) {
	f = f.Normalized()
	resp, err := c.api.Do(ctx, backend.Request{
		Op:             "search",
		Path:           "/properties/search",
		Query:          QueryValues(f),
		RetryTransport: true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, failure("search", resp)
	}
	return NormalizePage(resp.Body, f.Page, f.Size)
}

func (c *Client) Get(ctx context.Context, id int64) (*domain.ListingDetail, error) {
	resp, err := c.api.Do(ctx, backend.Request{
		Op:             "get",
		Path:           listingPath(id),
		RetryTransport: true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, failure("get", resp)
	}

	var detail domain.ListingDetail
	if err := resp.Decode(&detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Mine lists the signed-in user's own listings.
func (c *Client) Mine(ctx context.Context) ([]domain.Listing, error) {
	resp, err := c.api.Do(ctx, backend.Request{
		Op:    "mine",
		Path:  "/properties/my",
		Query: url.Values{"size": {"100"}, "sort": {domain.DefaultSort}},
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, failure("mine", resp)
	}

	page, err := NormalizePage(resp.Body, 0, 100)
	if err != nil {
		return nil, err
	}
	return page.Content, nil
}

// Similar returns up to n other listings in the same city with the same
// property type.
func (c *Client) Similar(ctx context.Context, d *domain.ListingDetail, n int) ([]domain.Listing, error) {
	if n <= 0 {
		return nil, nil
	}
	f := domain.Filter{City: d.City, PropertyType: d.PropertyType, Size: n + 1}
	page, err := c.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Listing, 0, n)
	for _, l := range page.Content {
		if l.ID == d.ID {
			continue
		}
		out = append(out, l)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, draft domain.ListingDraft) (*domain.ListingDetail, error) {
	return c.send(ctx, "create", http.MethodPost, "/properties", draft)
}

// Update applies draft as a partial update.
func (c *Client) Update(ctx context.Context, id int64, draft domain.ListingDraft) (*domain.ListingDetail, error) {
	return c.send(ctx, "update", http.MethodPatch, listingPath(id), draft)
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	resp, err := c.api.Do(ctx, backend.Request{
		Op:     "delete",
		Method: http.MethodDelete,
		Path:   listingPath(id),
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return failure("delete", resp)
	}
	return nil
}

// ImageUpload is one file attached to a listing.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
	IsPrimary   bool
}

func (c *Client) UploadImage(ctx context.Context, id int64, img ImageUpload) (*domain.Image, error) {
	body, contentType, err := multipartImage(img)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, backend.Request{
		Op:          "upload_image",
		Method:      http.MethodPost,
		Path:        listingPath(id) + "/images",
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, failure("upload_image", resp)
	}

	var out domain.Image
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteImage(ctx context.Context, id, imageID int64) error {
	resp, err := c.api.Do(ctx, backend.Request{
		Op:     "delete_image",
		Method: http.MethodDelete,
		Path:   listingPath(id) + "/images/" + strconv.FormatInt(imageID, 10),
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return failure("delete_image", resp)
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, draft domain.ListingDraft) (*domain.ListingDetail, error) {
	body, err := backend.JSONBody(draft)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, backend.Request{
		Op:          op,
		Method:      method,
		Path:        path,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, failure(op, resp)
	}

	var detail domain.ListingDetail
	if err := resp.Decode(&detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func multipartImage(img ImageUpload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, img.Filename))
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, img.Data); err != nil {
		return nil, "", fmt.Errorf("failed to copy image: %w", err)
	}
	if err := w.WriteField("isPrimary", strconv.FormatBool(img.IsPrimary)); err != nil {
		return nil, "", fmt.Errorf("failed to write field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func listingPath(id int64) string {
	return "/properties/" + strconv.FormatInt(id, 10)
}
