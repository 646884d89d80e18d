package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Client talks to a share endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the share endpoint at endpoint, e.g.
// "http://localhost:8080/api/share". A nil client uses http.DefaultClient.
func NewClient(endpoint string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{endpoint: strings.TrimRight(endpoint, "/"), http: client}
}

// Create shares ids and returns the guidebook id.
func (c *Client) Create(ctx context.Context, ids []int64) (string, error) {
	if err := Validate(ids); err != nil {
		return "", err
	}
	body, err := json.Marshal(CreateRequest{ContentIDs: ids})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out CreateResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.GuidebookID, nil
}

// Get fetches the guidebook with id.
func (c *Client) Get(ctx context.Context, id string) (Guidebook, error) {
	u := c.endpoint + "?id=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Guidebook{}, err
	}

	var g Guidebook
	err = c.do(req, &g)
	return g, err
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("share: %s (%d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("share: unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
