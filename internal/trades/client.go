package trades

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"radar/server/config"
	"radar/server/internal/metrics"
	"radar/server/internal/models"
)

// ErrUpstream is returned when the transaction API answers with an error code
var ErrUpstream = errors.New("upstream error")

const providerName = "molit"

// Fetcher fetches one calendar month of transactions for a district.
type Fetcher interface {
	Fetch(ctx context.Context, districtCode, yearMonth string) models.MonthResult
}

// Client calls the MOLIT apartment trade API.
type Client struct {
	baseURL    string
	serviceKey string
	pageSize   int
	client     *http.Client
	logger     *logrus.Logger
	metrics    *metrics.Recorder
}

func NewClient(cfg *config.Config, logger *logrus.Logger, recorder *metrics.Recorder) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Client{
		baseURL:    cfg.Trades.BaseURL,
		serviceKey: cfg.Trades.ServiceKey,
		pageSize:   cfg.Trades.PageSize,
		client:     &http.Client{Timeout: cfg.Trades.Timeout},
		logger:     logger,
		metrics:    recorder,
	}
}

// Fetch requests a single page of transactions. Rows beyond the page size are
// not requested. Upstream failures never escape as errors; they are reported
// as a failed MonthResult so callers can tell them apart from empty months.
func (c *Client) Fetch(ctx context.Context, districtCode, yearMonth string) models.MonthResult {
	result := models.MonthResult{YearMonth: yearMonth}

	body, err := c.get(ctx, districtCode, yearMonth)
	if err != nil {
		c.metrics.RecordUpstream(providerName, "failed")
		c.logger.WithError(err).WithFields(logrus.Fields{
			"district_code": districtCode,
			"year_month":    yearMonth,
		}).Warn("Transaction fetch failed")
		result.Status = models.MonthFailed
		result.Error = err.Error()
		return result
	}

	page, err := ParsePage(body)
	if err != nil {
		c.metrics.RecordUpstream(providerName, "failed")
		c.logger.WithError(err).WithFields(logrus.Fields{
			"district_code": districtCode,
			"year_month":    yearMonth,
		}).Warn("Transaction response rejected")
		result.Status = models.MonthFailed
		result.Error = err.Error()
		return result
	}

	transactions, dropped := page.Transactions, page.Dropped
	if page.TotalCount > c.pageSize {
		c.logger.WithFields(logrus.Fields{
			"district_code": districtCode,
			"year_month":    yearMonth,
			"total_count":   page.TotalCount,
			"page_size":     c.pageSize,
		}).Warn("Transaction page truncated")
	}

	for i := range transactions {
		transactions[i].YearMonth = yearMonth
	}

	c.metrics.RecordDropped(dropped)
	result.Transactions = transactions
	result.Count = len(transactions)
	result.Dropped = dropped
	if len(transactions) == 0 {
		c.metrics.RecordUpstream(providerName, "empty")
		result.Status = models.MonthEmpty
	} else {
		c.metrics.RecordUpstream(providerName, "ok")
		result.Status = models.MonthOK
	}

	fields := logrus.Fields{
		"district_code": districtCode,
		"year_month":    yearMonth,
		"count":         result.Count,
		"dropped":       dropped,
	}
	if dropped > 0 {
		c.logger.WithFields(fields).Debug("Dropped malformed transaction records")
	}
	c.logger.WithFields(fields).Info("Fetched transactions")

	return result
}

func (c *Client) get(ctx context.Context, districtCode, yearMonth string) ([]byte, error) {
	params := url.Values{
		"serviceKey": []string{c.serviceKey},
		"LAWD_CD":    []string{districtCode},
		"DEAL_YMD":   []string{yearMonth},
		"numOfRows":  []string{strconv.Itoa(c.pageSize)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
