package trades

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"radar/server/internal/models"
)

type tradeResponse struct {
	XMLName xml.Name `xml:"response"`
	Header  struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body struct {
		Items struct {
			Item []tradeItem `xml:"item"`
		} `xml:"items"`
		TotalCount string `xml:"totalCount"`
	} `xml:"body"`
}

type tradeItem struct {
	AptName     string `xml:"aptNm"`
	DealAmount  string `xml:"dealAmount"`
	UmdName     string `xml:"umdNm"`
	Jibun       string `xml:"jibun"`
	ExclusiveAr string `xml:"excluUseAr"`
	Floor       string `xml:"floor"`
	DealYear    string `xml:"dealYear"`
	DealMonth   string `xml:"dealMonth"`
	DealDay     string `xml:"dealDay"`
	BuildYear   string `xml:"buildYear"`
}

// Page is one decoded upstream response
type Page struct {
	Transactions []models.Transaction
	Dropped      int

	// Number of rows the upstream holds for the month, which can exceed the
	// rows returned in this page
	TotalCount int
}

// ParseResponse decodes an upstream XML document into transactions. Items
// whose price, area or deal date cannot be coerced are skipped and counted in
// dropped. A non-success result code in the header is returned as an error.
func ParseResponse(body []byte) ([]models.Transaction, int, error) {
	page, err := ParsePage(body)
	if err != nil {
		return nil, 0, err
	}
	return page.Transactions, page.Dropped, nil
}

// ParsePage is ParseResponse keeping the upstream row total
func ParsePage(body []byte) (Page, error) {
	var resp tradeResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("failed to parse response: %w", err)
	}

	code := strings.TrimSpace(resp.Header.ResultCode)
	if code != "" && code != "00" && code != "000" {
		return Page{}, fmt.Errorf("%w: %s %s", ErrUpstream, code, strings.TrimSpace(resp.Header.ResultMsg))
	}

	items := resp.Body.Items.Item
	page := Page{
		Transactions: make([]models.Transaction, 0, len(items)),
		TotalCount:   lenientInt(resp.Body.TotalCount),
	}
	for _, item := range items {
		tx, err := normalize(item)
		if err != nil {
			page.Dropped++
			continue
		}
		page.Transactions = append(page.Transactions, tx)
	}
	return page, nil
}

func normalize(item tradeItem) (models.Transaction, error) {
	price, err := parsePrice(item.DealAmount)
	if err != nil {
		return models.Transaction{}, err
	}

	area, err := strconv.ParseFloat(strings.TrimSpace(item.ExclusiveAr), 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid area %q: %w", item.ExclusiveAr, err)
	}

	date, err := parseDealDate(item.DealYear, item.DealMonth, item.DealDay)
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		Apartment: strings.TrimSpace(item.AptName),
		Dong:      strings.TrimSpace(item.UmdName),
		Jibun:     strings.TrimSpace(item.Jibun),
		Price:     price,
		Area:      area,
		Floor:     lenientInt(item.Floor),
		BuildYear: lenientInt(item.BuildYear),
		DealDate:  date,
	}, nil
}

// parsePrice accepts amounts like "82,500" or " 125,000"
func parsePrice(raw string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("empty price")
	}
	price, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	return price, nil
}

func parseDealDate(year, month, day string) (time.Time, error) {
	y, errY := strconv.Atoi(strings.TrimSpace(year))
	m, errM := strconv.Atoi(strings.TrimSpace(month))
	d, errD := strconv.Atoi(strings.TrimSpace(day))
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, fmt.Errorf("invalid deal date %s-%s-%s", year, month, day)
	}

	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow, so Feb 30 comes back as March
	if date.Year() != y || int(date.Month()) != m || date.Day() != d {
		return time.Time{}, fmt.Errorf("invalid deal date %d-%d-%d", y, m, d)
	}
	return date, nil
}

func lenientInt(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return v
}
