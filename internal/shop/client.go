package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"WatchShop/internal/catalog"
)

var (
	ErrClientNotFound          = errors.New("listing not found")
	ErrClientInsufficientStock = errors.New("insufficient stock")
	ErrClientRejected          = errors.New("request rejected")
	ErrClientUnauthorized      = errors.New("unauthorized")
	ErrClientBadStatus         = errors.New("shop bad status")
	ErrClientUnavailable       = errors.New("shop unavailable")
)

// Client calls the shop API, directly or through the gateway. Token, when
// set, is sent as a bearer token.
type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]catalog.Listing, error) {
	var out []catalog.Listing
	err := c.do(ctx, http.MethodGet, "/products", nil, &out)
	return out, err
}

func (c *Client) GetProduct(ctx context.Context, id uint64) (catalog.Listing, error) {
	var out catalog.Listing
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &out)
	return out, err
}

func (c *Client) AddProduct(ctx context.Context, in catalog.NewListing) (uint64, error) {
	var out createResp
	err := c.do(ctx, http.MethodPost, "/products", createReq{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Quantity:      in.Quantity,
		IsHandcrafted: in.Handcrafted,
	}, &out)
	return out.ID, err
}

func (c *Client) BuyProduct(ctx context.Context, id, quantity uint64) (catalog.Purchase, error) {
	var out catalog.Purchase
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/products/%d/buy", id), buyReq{Quantity: quantity}, &out)
	return out, err
}

func (c *Client) MyPurchases(ctx context.Context) ([]catalog.Purchase, error) {
	var out []catalog.Purchase
	err := c.do(ctx, http.MethodGet, "/purchases/mine", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClientUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrClientNotFound, readError(resp.Body))
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrClientInsufficientStock, readError(resp.Body))
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrClientRejected, readError(resp.Body))
	case http.StatusUnauthorized, http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrClientUnauthorized, resp.StatusCode)
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrClientBadStatus, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// readError returns the most specific message from an error body.
func readError(body io.Reader) string {
	var er struct {
		Error   string `json:"error"`
		Details any    `json:"details"`
	}
	if err := json.NewDecoder(body).Decode(&er); err != nil {
		return "unreadable error body"
	}
	if d, ok := er.Details.(string); ok && d != "" {
		return d
	}
	return er.Error
}
