package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/table-booking/internal/audit"
	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/httperr"
	"github.com/BruksfildServices01/table-booking/internal/httpresp"
	"github.com/BruksfildServices01/table-booking/internal/middleware"
	"github.com/BruksfildServices01/table-booking/internal/models"
)

var weekdays = map[string]string{
	"monday":    "Monday",
	"tuesday":   "Tuesday",
	"wednesday": "Wednesday",
	"thursday":  "Thursday",
	"friday":    "Friday",
	"saturday":  "Saturday",
	"sunday":    "Sunday",
}

// normalizeWorkingHours canonicalizes weekday keys and drops blank entries.
func normalizeWorkingHours(in models.WorkingHours) (models.WorkingHours, error) {
	out := make(models.WorkingHours, len(in))
	for day, hours := range in {
		name, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return nil, domain.InvalidArgument("workingHours", "unknown weekday "+day)
		}
		hours = strings.TrimSpace(hours)
		if len(hours) > 60 {
			return nil, domain.InvalidArgument("workingHours", name+" is too long")
		}
		if hours != "" {
			out[name] = hours
		}
	}
	return out, nil
}

type WorkingHoursHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewWorkingHoursHandler(db *gorm.DB, audit *audit.Dispatcher) *WorkingHoursHandler {
	return &WorkingHoursHandler{db: db, audit: audit}
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	var rest models.Restaurant
	if err := h.db.WithContext(c.Request.Context()).
		Select("id", "working_hours").
		First(&rest, "id = ?", c.Param("id")).Error; err != nil {
		restaurantLoadError(c, err)
		return
	}

	if rest.WorkingHours == nil {
		rest.WorkingHours = models.WorkingHours{}
	}
	httpresp.OK(c, rest.WorkingHours)
}

func (h *WorkingHoursHandler) Update(c *gin.Context) {
	var req models.WorkingHours
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.FromError(c, domain.InvalidArgument("workingHours", "workingHours must be a JSON object"))
		return
	}

	hours, err := normalizeWorkingHours(req)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	var rest models.Restaurant
	if err := h.db.WithContext(c.Request.Context()).First(&rest, "id = ?", c.Param("id")).Error; err != nil {
		restaurantLoadError(c, err)
		return
	}
	if rest.OwnerID != middleware.UserID(c) {
		httperr.FromError(c, httperr.ErrBusiness("not_restaurant_owner"))
		return
	}

	rest.WorkingHours = hours
	if err := h.db.WithContext(c.Request.Context()).Save(&rest).Error; err != nil {
		httperr.Internal(c, "failed_to_save_working_hours", "Could not save working hours.")
		return
	}

	h.audit.Dispatch(audit.Event{
		RestaurantID: rest.ID,
		Actor:        c.GetString(middleware.ContextUserEmail),
		Action:       "working_hours_updated",
		Entity:       "restaurant",
		EntityID:     rest.ID,
		Metadata:     hours,
	})

	httpresp.OK(c, hours)
}
