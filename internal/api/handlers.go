package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"radar/server/config"
	"radar/server/internal/database"
	"radar/server/internal/export"
	"radar/server/internal/geometry"
	"radar/server/internal/models"
	"radar/server/internal/query"
	"radar/server/internal/trades"
)

const (
	MessageNoData      = "no transactions this period"
	MessageUnavailable = "transaction service unavailable"
	MessagePartial     = "some months could not be fetched"

	dongAverageLimit = 10
)

// QueryRunner runs a window query and stores its dataset
type QueryRunner interface {
	Run(ctx context.Context, req query.Request) (*models.Dataset, error)
}

// MapBuilder turns a dataset into map markers
type MapBuilder interface {
	Build(ctx context.Context, ds *models.Dataset) *geometry.MarkerMap
}

type Handler struct {
	db      *database.Database
	runner  QueryRunner
	markers MapBuilder
	logger  *logrus.Logger
	now     func() time.Time
}

// QuerySummary is the response for a created or fetched query
type QuerySummary struct {
	QueryID      string               `json:"query_id"`
	Province     string               `json:"province"`
	District     string               `json:"district"`
	DistrictCode string               `json:"district_code"`
	Status       models.DatasetStatus `json:"status"`
	Partial      bool                 `json:"partial"`
	Count        int                  `json:"count"`
	Window       int                  `json:"window"`
	Months       []models.MonthResult `json:"months"`
	Thresholds   models.Thresholds    `json:"thresholds"`
	Message      string               `json:"message,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func NewHandler(db *database.Database, runner QueryRunner, markers MapBuilder, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:      db,
		runner:  runner,
		markers: markers,
		logger:  logger,
		now:     time.Now,
	}
}

func summarize(ds *models.Dataset) QuerySummary {
	summary := QuerySummary{
		QueryID:      ds.ID,
		Province:     ds.Region.Province,
		District:     ds.Region.District,
		DistrictCode: ds.Region.DistrictCode,
		Status:       ds.Status(),
		Partial:      ds.Partial(),
		Count:        len(ds.Transactions),
		Window:       ds.Months,
		Months:       ds.Results,
		Thresholds:   ds.Thresholds,
		CreatedAt:    ds.CreatedAt,
	}
	if summary.Months == nil {
		summary.Months = []models.MonthResult{}
	}

	switch {
	case summary.Status == models.DatasetNoData:
		summary.Message = MessageNoData
	case summary.Status == models.DatasetUnavailable:
		summary.Message = MessageUnavailable
	case summary.Partial:
		summary.Message = MessagePartial
	}
	return summary
}

func (h *Handler) CreateQuery(c *gin.Context) {
	var req query.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: province, district and months (1, 3 or 6) are required"})
		return
	}

	ds, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, config.ErrUnknownRegion):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, trades.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Failed to run query")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run query"})
		}
		return
	}

	c.JSON(http.StatusCreated, summarize(ds))
}

// loadDataset answers 404 or 500 itself and returns nil when the dataset
// cannot be loaded
func (h *Handler) loadDataset(c *gin.Context) *models.Dataset {
	ds, err := h.db.GetDataset(c.Param("id"))
	if err != nil {
		h.abortWithError(c, err, "Failed to get query")
		return nil
	}
	return ds
}

func (h *Handler) abortWithError(c *gin.Context, err error, message string) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Query not found"})
		return
	}
	h.logger.WithError(err).WithField("query_id", c.Param("id")).Error(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func (h *Handler) GetQuery(c *gin.Context) {
	ds := h.loadDataset(c)
	if ds == nil {
		return
	}
	c.JSON(http.StatusOK, summarize(ds))
}

// bindFilter answers 400 itself and returns false on an invalid filter
func (h *Handler) bindFilter(c *gin.Context) (models.ListFilter, bool) {
	var filter models.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter"})
		return filter, false
	}
	if !database.ValidSort(filter.Sort) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort order"})
		return filter, false
	}
	return filter, true
}

func (h *Handler) GetTransactions(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	id := c.Param("id")
	transactions, err := h.db.ListTransactions(id, filter)
	if err != nil {
		h.abortWithError(c, err, "Failed to get transactions")
		return
	}
	options, err := h.db.FilterOptions(id)
	if err != nil {
		h.abortWithError(c, err, "Failed to get filter options")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"count":        len(transactions),
		"filters":      options,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	id := c.Param("id")

	summary, err := h.db.Summary(id)
	if err != nil {
		h.abortWithError(c, err, "Failed to get stats")
		return
	}
	dongs, err := h.db.DongAverages(id, dongAverageLimit)
	if err != nil {
		h.abortWithError(c, err, "Failed to get dong averages")
		return
	}
	monthly, err := h.db.MonthlyAverages(id)
	if err != nil {
		h.abortWithError(c, err, "Failed to get monthly averages")
		return
	}
	bands, err := h.db.AreaBands(id)
	if err != nil {
		h.abortWithError(c, err, "Failed to get area bands")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":          summary,
		"dong_averages":    dongs,
		"monthly_averages": monthly,
		"area_bands":       bands,
	})
}

func (h *Handler) GetMap(c *gin.Context) {
	ds := h.loadDataset(c)
	if ds == nil {
		return
	}
	c.JSON(http.StatusOK, h.markers.Build(c.Request.Context(), ds))
}

func (h *Handler) ExportCSV(c *gin.Context) {
	h.export(c, "csv", "text/csv; charset=utf-8", export.WriteCSV)
}

func (h *Handler) ExportXLSX(c *gin.Context) {
	h.export(c, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteXLSX)
}

func (h *Handler) export(c *gin.Context, ext, contentType string, write func(io.Writer, []models.Transaction) error) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	transactions, err := h.db.ListTransactions(c.Param("id"), filter)
	if err != nil {
		h.abortWithError(c, err, "Failed to get transactions")
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, transactions); err != nil {
		h.logger.WithError(err).WithField("format", ext).Error("Failed to export transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export transactions"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(h.now(), ext)+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
