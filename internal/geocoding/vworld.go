package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"radar/server/internal/models"
)

// VWorldProvider geocodes parcel addresses with the VWorld address API.
type VWorldProvider struct {
	baseURL string
	key     string
	client  *http.Client
	limiter *rate.Limiter
}

type vworldResponse struct {
	Response struct {
		Status string `json:"status"`
		Result struct {
			Point struct {
				X string `json:"x"`
				Y string `json:"y"`
			} `json:"point"`
		} `json:"result"`
		Error struct {
			Code string `json:"code"`
			Text string `json:"text"`
		} `json:"error"`
	} `json:"response"`
}

func NewVWorldProvider(baseURL, key string, timeout, minInterval time.Duration) *VWorldProvider {
	return &VWorldProvider{
		baseURL: baseURL,
		key:     key,
		client:  &http.Client{Timeout: timeout},
		limiter: newLimiter(minInterval),
	}
}

func (p *VWorldProvider) Name() string { return "vworld" }

func (p *VWorldProvider) Geocode(ctx context.Context, address string) (models.GeoPoint, error) {
	if p.key == "" {
		return models.GeoPoint{}, ErrNotConfigured
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return models.GeoPoint{}, err
	}

	params := url.Values{
		"service": []string{"address"},
		"request": []string{"getCoord"},
		"key":     []string{p.key},
		"type":    []string{"PARCEL"},
		"address": []string{address},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()

	var result vworldResponse
	if err := doJSON(p.client, req, &result); err != nil {
		return models.GeoPoint{}, err
	}

	if result.Response.Status != "OK" {
		if result.Response.Status == "NOT_FOUND" {
			return models.GeoPoint{}, ErrNoResults
		}
		return models.GeoPoint{}, fmt.Errorf("vworld status %s: %s", result.Response.Status, result.Response.Error.Text)
	}

	return parsePoint(result.Response.Result.Point.Y, result.Response.Result.Point.X)
}

func newLimiter(minInterval time.Duration) *rate.Limiter {
	if minInterval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(minInterval), 1)
}

func doJSON(client *http.Client, req *http.Request, v interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("geocoding request returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func parsePoint(latRaw, lonRaw string) (models.GeoPoint, error) {
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("invalid latitude %q: %w", latRaw, err)
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("invalid longitude %q: %w", lonRaw, err)
	}
	return models.NewGeoPoint(lat, lon), nil
}
