package psacert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrNotFound = errors.New("certificate not found")
	ErrUpstream = errors.New("psa api error")
)

// Client talks to the PSA public API.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, token string) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	return &Client{http: c}
}

type certImage struct {
	IsFrontImage bool   `json:"IsFrontImage"`
	ImageURL     string `json:"ImageURL"`
}

// Lookup fetches and normalizes the cert record. The metadata call decides
// success or failure; the imagery call is best-effort and a failure there
// only leaves the image fields nil.
func (c *Client) Lookup(ctx context.Context, certNumber string) (*Card, error) {
	certNumber = strings.TrimLeft(certNumber, "#")

	resp, err := c.http.R().
		SetContext(ctx).
		Get("/cert/GetByCertNumber/" + certNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	card := normalize(raw, certNumber)
	c.attachImages(ctx, certNumber, &card)
	return &card, nil
}

func (c *Client) attachImages(ctx context.Context, certNumber string, card *Card) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/cert/GetImagesByCertNumber/" + certNumber)
	if err != nil {
		log.Printf("psa images lookup failed for cert %s: %v", certNumber, err)
		return
	}
	if resp.StatusCode() != http.StatusOK {
		log.Printf("psa images endpoint returned %d for cert %s", resp.StatusCode(), certNumber)
		return
	}

	var images []certImage
	if err := json.Unmarshal(resp.Body(), &images); err != nil {
		log.Printf("psa images payload unreadable for cert %s: %v", certNumber, err)
		return
	}

	for _, img := range images {
		if img.ImageURL == "" {
			continue
		}
		url := img.ImageURL
		if img.IsFrontImage {
			card.FrontImageURL = &url
		} else {
			card.BackImageURL = &url
		}
	}
}
