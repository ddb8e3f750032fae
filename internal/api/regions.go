package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"radar/server/config"
)

type ProvinceDistricts struct {
	Province  string   `json:"province"`
	Districts []string `json:"districts"`
}

// ListRegions returns every supported province with its districts
func (h *Handler) ListRegions(c *gin.Context) {
	provinces := config.Provinces()
	regions := make([]ProvinceDistricts, 0, len(provinces))
	for _, province := range provinces {
		districts, err := config.Districts(province)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list districts")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list regions"})
			return
		}
		regions = append(regions, ProvinceDistricts{Province: province, Districts: districts})
	}
	c.JSON(http.StatusOK, regions)
}

func (h *Handler) GetProvinceDistricts(c *gin.Context) {
	province := c.Param("province")
	districts, err := config.Districts(province)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Province not found"})
		return
	}
	c.JSON(http.StatusOK, ProvinceDistricts{Province: province, Districts: districts})
}
