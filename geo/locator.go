//go:generate go run go.uber.org/mock/mockgen -source=locator.go -destination=../mocks/mock_locator.go -package=mocks
// Package geo resolves a source network address to a coarse location.
// Lookups are opportunistic enrichment: any failure degrades to the zero
// location and never blocks the caller.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"social-lab/domain"
)

// Locator turns an IP address into an approximate latitude/longitude.
type Locator interface {
	Locate(ctx context.Context, ip string) domain.Location
}

// IPInfoClient queries the ipinfo.io lookup service.
type IPInfoClient struct {
	baseURL string
	token   string
	client  *http.Client
	log     *slog.Logger
}

func NewIPInfoClient(log *slog.Logger, baseURL, token string) *IPInfoClient {
	return &IPInfoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
}

type ipinfoResponse struct {
	Loc     string `json:"loc"`
	Org     string `json:"org"`
	Company string `json:"company"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// Locate returns the coordinates for ip, or the zero location on any failure.
// Loopback addresses are zeroed without a lookup.
func (c *IPInfoClient) Locate(ctx context.Context, ip string) domain.Location {
	info, err := c.lookup(ctx, ip)
	if err != nil {
		c.log.Warn("geolocation fetch error", "ip", ip, "error", err)
		return domain.ZeroLocation()
	}
	if info.Loc == "" {
		return domain.ZeroLocation()
	}

	lat, long, found := strings.Cut(info.Loc, ",")
	if !found {
		return domain.ZeroLocation()
	}
	return domain.Location{Latitude: lat, Longitude: long}
}

// Details exposes the raw provider fields used by the reputation annotator.
func (c *IPInfoClient) Details(ctx context.Context, ip string) (map[string]string, error) {
	info, err := c.lookup(ctx, ip)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"org":     info.Org,
		"company": info.Company,
		"city":    info.City,
		"region":  info.Region,
		"country": info.Country,
	}, nil
}

func IsLoopback(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1" || ip == "localhost"
}

func (c *IPInfoClient) lookup(ctx context.Context, ip string) (ipinfoResponse, error) {
	if IsLoopback(ip) {
		return ipinfoResponse{}, nil
	}

	url := fmt.Sprintf("%s/%s?token=%s", c.baseURL, ip, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ipinfoResponse{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ipinfoResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ipinfoResponse{}, fmt.Errorf("lookup returned %d", resp.StatusCode)
	}

	var info ipinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ipinfoResponse{}, err
	}
	return info, nil
}
