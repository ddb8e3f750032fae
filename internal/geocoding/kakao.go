package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"radar/server/internal/models"
)

// KakaoProvider geocodes addresses with the Kakao local search API.
type KakaoProvider struct {
	baseURL string
	key     string
	client  *http.Client
	limiter *rate.Limiter
}

type kakaoResponse struct {
	Documents []struct {
		AddressName string `json:"address_name"`
		X           string `json:"x"`
		Y           string `json:"y"`
	} `json:"documents"`
}

func NewKakaoProvider(baseURL, key string, timeout, minInterval time.Duration) *KakaoProvider {
	return &KakaoProvider{
		baseURL: baseURL,
		key:     key,
		client:  &http.Client{Timeout: timeout},
		limiter: newLimiter(minInterval),
	}
}

func (p *KakaoProvider) Name() string { return "kakao" }

func (p *KakaoProvider) Geocode(ctx context.Context, address string) (models.GeoPoint, error) {
	if p.key == "" {
		return models.GeoPoint{}, ErrNotConfigured
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return models.GeoPoint{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = url.Values{"query": []string{address}}.Encode()
	req.Header.Set("Authorization", "KakaoAK "+p.key)

	var result kakaoResponse
	if err := doJSON(p.client, req, &result); err != nil {
		return models.GeoPoint{}, err
	}

	if len(result.Documents) == 0 {
		return models.GeoPoint{}, ErrNoResults
	}

	doc := result.Documents[0]
	return parsePoint(doc.Y, doc.X)
}
