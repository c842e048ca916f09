// Package pms is the client for the property-management reservation backend.
// The sync engine hands it reservations to materialize and asks it for
// alternate rooms during merge resolutions.
package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lumenpms/channelsync/internal/models"
)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, client: client}
}

// ConfirmLocal records a locally queued reservation as confirmed once the
// channels have accepted it.
func (c *Client) ConfirmLocal(ctx context.Context, res *models.OfflineReservationRequest) error {
	payload := map[string]any{
		"confirmation_number": res.ConfirmationNumber,
		"guest_name":          res.GuestName,
		"guest_email":         res.GuestEmail,
		"guest_phone":         res.GuestPhone,
		"room_type":           res.RoomType,
		"room_number":         res.RoomNumber,
		"check_in":            res.CheckIn,
		"check_out":           res.CheckOut,
		"adults":              res.Adults,
		"children":            res.Children,
		"total_amount":        res.TotalAmount,
		"source":              res.Channel,
	}
	return c.post(ctx, "/reservations/confirm", payload)
}

// CreateFromChannel materializes a channel buffer entry as a confirmed
// reservation.
func (c *Client) CreateFromChannel(ctx context.Context, res *models.ChannelReservation) error {
	payload := map[string]any{
		"channel":              res.Channel,
		"channel_confirmation": res.ChannelConfirmation,
		"guest_name":           res.GuestName,
		"guest_email":          res.GuestEmail,
		"room_type":            res.RoomType,
		"check_in":             res.CheckIn,
		"check_out":            res.CheckOut,
		"total_amount":         res.TotalAmount,
	}
	return c.post(ctx, "/reservations", payload)
}

// FindAlternateRoom asks the PMS for a vacant room of the given type over the
// stay. An empty room number means nothing is available.
func (c *Client) FindAlternateRoom(ctx context.Context, roomType string, checkIn, checkOut time.Time) (string, error) {
	query := url.Values{}
	query.Set("room_type", roomType)
	query.Set("check_in", checkIn.Format("2006-01-02"))
	query.Set("check_out", checkOut.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/rooms/available?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("PMS returned %s", resp.Status)
	}

	var body struct {
		RoomNumber string `json:"room_number"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode availability response: %w", err)
	}
	return body.RoomNumber, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("PMS returned %s", resp.Status)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}
