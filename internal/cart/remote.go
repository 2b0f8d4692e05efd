package cart

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

	"PawMart/internal/identity"
)

var (
	ErrRemoteUnavailable = errors.New("cart api unavailable")
	ErrRemoteBadStatus   = errors.New("cart api bad status")
)

// Client talks to the cart store-of-record. A bearer token from the
// identity provider is attached when present; without one the request
// goes out unauthenticated.
type Client struct {
	BaseURL  string
	Identity identity.Provider
	HTTP     *http.Client
}

func NewClient(baseURL string, p identity.Provider) *Client {
	if p == nil {
		p = identity.Anonymous
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Identity: p,
		HTTP:     &http.Client{Timeout: 3 * time.Second},
	}
}

type upsertReq struct {
	UserID string `json:"userId"`
	Line
}

type setQuantityReq struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type removeReq struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId,omitempty"`
}

func (c *Client) Get(ctx context.Context, userID string) (Cart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/cart?userId="+url.QueryEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, ErrRemoteUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrRemoteBadStatus, resp.StatusCode)
	}

	var lines Cart
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = Cart{}
	}
	return lines, nil
}

// Upsert mirrors one line to the remote. The line carries the merged
// absolute quantity from the local cart, so repeated or deduplicated
// deliveries settle on the same row.
func (c *Client) Upsert(ctx context.Context, userID string, line Line) error {
	return c.send(ctx, http.MethodPost, upsertReq{UserID: userID, Line: line})
}

func (c *Client) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	return c.send(ctx, http.MethodPut, setQuantityReq{UserID: userID, ProductID: productID, Quantity: qty})
}

func (c *Client) Remove(ctx context.Context, userID, productID string) error {
	return c.send(ctx, http.MethodDelete, removeReq{UserID: userID, ProductID: productID})
}

func (c *Client) Clear(ctx context.Context, userID string) error {
	return c.send(ctx, http.MethodDelete, removeReq{UserID: userID})
}

func (c *Client) send(ctx context.Context, method string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/cart", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return ErrRemoteUnavailable
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status=%d", ErrRemoteBadStatus, resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if tok := c.Identity.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}
