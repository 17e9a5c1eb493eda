package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/table-booking/internal/audit"
	"github.com/BruksfildServices01/table-booking/internal/config"
	domain "github.com/BruksfildServices01/table-booking/internal/domain/booking"
	"github.com/BruksfildServices01/table-booking/internal/export"
	"github.com/BruksfildServices01/table-booking/internal/httperr"
	"github.com/BruksfildServices01/table-booking/internal/httpresp"
	"github.com/BruksfildServices01/table-booking/internal/imageproc"
	"github.com/BruksfildServices01/table-booking/internal/middleware"
	"github.com/BruksfildServices01/table-booking/internal/models"
	"github.com/BruksfildServices01/table-booking/internal/storage"
	"github.com/BruksfildServices01/table-booking/internal/timezone"
	ucbooking "github.com/BruksfildServices01/table-booking/internal/usecase/booking"
	"github.com/BruksfildServices01/table-booking/internal/validators"
)

const (
	maxRestaurantImages = 6
	maxImageBytes       = 5 << 20
)

// ======================================================
// HANDLER
// ======================================================

// restaurantRemover deletes a restaurant under the admission lock.
type restaurantRemover interface {
	DeleteRestaurant(ctx context.Context, restaurantID string, now time.Time) error
}

type RestaurantHandler struct {
	db         *gorm.DB
	remover    restaurantRemover
	config     *config.Config
	images     storage.ImageStore
	audit      *audit.Dispatcher
	listByDate *ucbooking.ListBookingsByDate
	log        zerolog.Logger
}

func NewRestaurantHandler(
	db *gorm.DB,
	remover restaurantRemover,
	cfg *config.Config,
	images storage.ImageStore,
	audit *audit.Dispatcher,
	listByDate *ucbooking.ListBookingsByDate,
	log zerolog.Logger,
) *RestaurantHandler {
	return &RestaurantHandler{
		db:         db,
		remover:    remover,
		config:     cfg,
		images:     images,
		audit:      audit,
		listByDate: listByDate,
		log:        log,
	}
}

// ======================================================
// REQUESTS
// ======================================================

// restaurantInput carries the profile fields of a register or update call.
// Nil fields were not sent.
type restaurantInput struct {
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	Contact      *string             `json:"contact"`
	Email        *string             `json:"email"`
	TotalSeats   *int                `json:"totalSeats"`
	WorkingHours models.WorkingHours `json:"workingHours"`
	Timezone     *string             `json:"timezone"`

	files []*multipart.FileHeader
}

// bindRestaurant reads a multipart form (what the dashboard sends) or a JSON
// body.
func bindRestaurant(c *gin.Context) (*restaurantInput, error) {
	in := &restaurantInput{}

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(in); err != nil {
			return nil, domain.InvalidArgument("body", "invalid request body")
		}
		return in, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.InvalidArgument("body", "invalid multipart form")
	}

	field := func(name string) *string {
		if v, ok := form.Value[name]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}

	in.Name = field("name")
	in.Description = field("description")
	in.Contact = field("contact")
	in.Email = field("email")
	in.Timezone = field("timezone")

	if v := field("totalSeats"); v != nil {
		n, err := strconv.Atoi(strings.TrimSpace(*v))
		if err != nil {
			return nil, domain.InvalidArgument("totalSeats", "totalSeats must be a positive integer")
		}
		in.TotalSeats = &n
	}

	if v := field("workingHours"); v != nil && strings.TrimSpace(*v) != "" {
		if err := json.Unmarshal([]byte(*v), &in.WorkingHours); err != nil {
			return nil, domain.InvalidArgument("workingHours", "workingHours must be a JSON object")
		}
	}

	in.files = form.File["images"]
	return in, nil
}

// apply validates in and copies it onto rest.
func (h *RestaurantHandler) apply(rest *models.Restaurant, in *restaurantInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 120 {
			return domain.InvalidArgument("name", "name is required")
		}
		rest.Name = name
	}
	if in.Description != nil {
		rest.Description = strings.TrimSpace(*in.Description)
	}
	if in.Contact != nil {
		rest.Contact = strings.TrimSpace(*in.Contact)
	}
	if in.Email != nil {
		email := validators.NormalizeEmail(*in.Email)
		if email != "" && !validators.IsEmailSyntaxValid(email) {
			return domain.InvalidArgument("email", "email is not valid")
		}
		rest.Email = email
	}
	if in.TotalSeats != nil {
		if *in.TotalSeats <= 0 {
			return domain.InvalidArgument("totalSeats", "totalSeats must be a positive integer")
		}
		rest.TotalSeats = *in.TotalSeats
	}
	if in.WorkingHours != nil {
		wh, err := normalizeWorkingHours(in.WorkingHours)
		if err != nil {
			return err
		}
		rest.WorkingHours = wh
	}
	if in.Timezone != nil {
		tz := strings.TrimSpace(*in.Timezone)
		if !timezone.IsValid(tz) {
			return domain.InvalidArgument("timezone", "timezone must be an IANA name")
		}
		rest.Timezone = tz
	}

	if len(rest.Images)+len(in.files) > maxRestaurantImages {
		return domain.InvalidArgument("images", fmt.Sprintf("a restaurant can have at most %d images", maxRestaurantImages))
	}
	return nil
}

// ======================================================
// PUBLIC
// ======================================================

// List returns every restaurant as a plain array, the shape the public
// listing page renders.
func (h *RestaurantHandler) List(c *gin.Context) {
	var restaurants []models.Restaurant
	if err := h.db.WithContext(c.Request.Context()).
		Order("name ASC").
		Find(&restaurants).Error; err != nil {
		httperr.Internal(c, "restaurant_list_failed", "Could not list restaurants.")
		return
	}
	if restaurants == nil {
		restaurants = []models.Restaurant{}
	}
	httpresp.OK(c, restaurants)
}

func (h *RestaurantHandler) Get(c *gin.Context) {
	rest, ok := h.load(c)
	if !ok {
		return
	}
	httpresp.OK(c, rest)
}

// ======================================================
// OWNER
// ======================================================

func (h *RestaurantHandler) Mine(c *gin.Context) {
	var restaurants []models.Restaurant
	if err := h.db.WithContext(c.Request.Context()).
		Where("owner_id = ?", middleware.UserID(c)).
		Order("created_at DESC").
		Find(&restaurants).Error; err != nil {
		httperr.Internal(c, "restaurant_list_failed", "Could not list restaurants.")
		return
	}
	if restaurants == nil {
		restaurants = []models.Restaurant{}
	}
	httpresp.OK(c, restaurants)
}

func (h *RestaurantHandler) Register(c *gin.Context) {
	in, err := bindRestaurant(c)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	if in.Name == nil {
		httperr.FromError(c, domain.InvalidArgument("name", "name is required"))
		return
	}
	if in.TotalSeats == nil {
		httperr.FromError(c, domain.InvalidArgument("totalSeats", "totalSeats is required"))
		return
	}

	rest := models.Restaurant{
		ID:           uuid.NewString(),
		OwnerID:      middleware.UserID(c),
		WorkingHours: models.WorkingHours{},
		Images:       []string{},
		Timezone:     h.config.DefaultTimezone,
	}
	if err := h.apply(&rest, in); err != nil {
		httperr.FromError(c, err)
		return
	}

	uploaded, err := h.upload(c.Request.Context(), rest.ID, in.files)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	rest.Images = append(rest.Images, uploaded...)

	if err := h.db.WithContext(c.Request.Context()).Create(&rest).Error; err != nil {
		h.discard(uploaded)
		httperr.Internal(c, "failed_to_create_restaurant", "Could not create the restaurant.")
		return
	}

	h.audit.Dispatch(audit.Event{
		RestaurantID: rest.ID,
		Actor:        c.GetString(middleware.ContextUserEmail),
		Action:       "restaurant_created",
		Entity:       "restaurant",
		EntityID:     rest.ID,
		Metadata:     gin.H{"totalSeats": rest.TotalSeats, "images": len(rest.Images)},
	})

	c.JSON(http.StatusCreated, rest)
}

func (h *RestaurantHandler) Update(c *gin.Context) {
	rest, ok := h.owned(c)
	if !ok {
		return
	}

	in, err := bindRestaurant(c)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	before := rest.TotalSeats
	if err := h.apply(rest, in); err != nil {
		httperr.FromError(c, err)
		return
	}

	uploaded, err := h.upload(c.Request.Context(), rest.ID, in.files)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	rest.Images = append(rest.Images, uploaded...)

	if err := h.db.WithContext(c.Request.Context()).Save(rest).Error; err != nil {
		h.discard(uploaded)
		httperr.Internal(c, "failed_to_update_restaurant", "Could not update the restaurant.")
		return
	}

	if rest.TotalSeats < before {
		h.warnIfOverbooked(c.Request.Context(), rest)
	}

	h.audit.Dispatch(audit.Event{
		RestaurantID: rest.ID,
		Actor:        c.GetString(middleware.ContextUserEmail),
		Action:       "restaurant_updated",
		Entity:       "restaurant",
		EntityID:     rest.ID,
		Metadata:     gin.H{"totalSeats": rest.TotalSeats, "previousTotalSeats": before},
	})

	c.JSON(http.StatusOK, rest)
}

func (h *RestaurantHandler) Delete(c *gin.Context) {
	rest, ok := h.owned(c)
	if !ok {
		return
	}

	err := h.remover.DeleteRestaurant(c.Request.Context(), rest.ID, time.Now())
	if errors.Is(err, domain.ErrActiveBookings) {
		err = httperr.ErrBusiness("restaurant_has_active_bookings")
	}
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	h.discard(rest.Images)

	h.audit.Dispatch(audit.Event{
		RestaurantID: rest.ID,
		Actor:        c.GetString(middleware.ContextUserEmail),
		Action:       "restaurant_deleted",
		Entity:       "restaurant",
		EntityID:     rest.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted."})
}

// ======================================================
// DASHBOARD
// ======================================================

func (h *RestaurantHandler) Bookings(c *gin.Context) {
	rest, ok := h.owned(c)
	if !ok {
		return
	}

	date := h.dateParam(c, rest)
	rows, err := h.listByDate.Execute(c.Request.Context(), rest, date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":     date,
		"bookings": rows,
	})
}

func (h *RestaurantHandler) ExportBookings(c *gin.Context) {
	rest, ok := h.owned(c)
	if !ok {
		return
	}

	date := h.dateParam(c, rest)
	rows, err := h.listByDate.Execute(c.Request.Context(), rest, date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.Header("Content-Type", export.ContentTypeXLSX)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings-%s.xlsx"`, date))
	c.Status(http.StatusOK)

	if err := export.WriteBookings(c.Writer, rest.Name, date, rows); err != nil {
		h.log.Error().Err(err).Str("restaurant_id", rest.ID).Msg("export bookings failed")
	}
}

// ======================================================
// HELPERS
// ======================================================

func (h *RestaurantHandler) load(c *gin.Context) (*models.Restaurant, bool) {
	var rest models.Restaurant
	if err := h.db.WithContext(c.Request.Context()).First(&rest, "id = ?", c.Param("id")).Error; err != nil {
		restaurantLoadError(c, err)
		return nil, false
	}
	return &rest, true
}

func restaurantLoadError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.FromError(c, domain.NotFound("restaurant"))
		return
	}
	httperr.Internal(c, "failed_to_get_restaurant", "Could not load the restaurant.")
}

// owned loads the restaurant in the path and checks the caller owns it.
func (h *RestaurantHandler) owned(c *gin.Context) (*models.Restaurant, bool) {
	rest, ok := h.load(c)
	if !ok {
		return nil, false
	}
	if rest.OwnerID != middleware.UserID(c) {
		httperr.FromError(c, httperr.ErrBusiness("not_restaurant_owner"))
		return nil, false
	}
	return rest, true
}

func (h *RestaurantHandler) dateParam(c *gin.Context, rest *models.Restaurant) string {
	if d := c.Query("date"); d != "" {
		return d
	}
	return timezone.NowIn(rest.Timezone, h.config.DefaultTimezone).Format("2006-01-02")
}

func (h *RestaurantHandler) upload(ctx context.Context, restaurantID string, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if h.images == nil {
		return nil, httperr.ErrBusiness("image_storage_not_configured")
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxImageBytes {
			h.discard(urls)
			return nil, domain.InvalidArgument("images", fmt.Sprintf("%s is larger than 5MB", fh.Filename))
		}

		f, err := fh.Open()
		if err != nil {
			h.discard(urls)
			return nil, fmt.Errorf("open upload: %w", err)
		}
		body, err := imageproc.Normalize(f, imageproc.DefaultMaxWidth)
		_ = f.Close()
		if err != nil {
			h.discard(urls)
			return nil, domain.InvalidArgument("images", fmt.Sprintf("%s: %v", fh.Filename, err))
		}

		key := fmt.Sprintf("restaurants/%s/%s.jpg", restaurantID, uuid.NewString())
		url, err := h.images.Put(ctx, key, "image/jpeg", body)
		if err != nil {
			h.discard(urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// discard removes stored images; failures only leave orphans behind.
func (h *RestaurantHandler) discard(urls []string) {
	if h.images == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, u := range urls {
		key, ok := h.images.KeyFromURL(u)
		if !ok {
			continue
		}
		if err := h.images.Delete(ctx, key); err != nil {
			h.log.Warn().Err(err).Str("key", key).Msg("delete image failed")
		}
	}
}

// warnIfOverbooked logs when already committed future bookings exceed a
// reduced capacity. They are kept; new admissions see the new total.
func (h *RestaurantHandler) warnIfOverbooked(ctx context.Context, rest *models.Restaurant) {
	var bookings []models.Booking
	if err := h.db.WithContext(ctx).
		Where("restaurant_id = ? AND status = ? AND end_time > ?",
			rest.ID, string(domain.StatusConfirmed), time.Now().UTC()).
		Find(&bookings).Error; err != nil {
		return
	}

	windows := make([]domain.Interval, len(bookings))
	guests := make([]int, len(bookings))
	for i := range bookings {
		windows[i] = domain.Window(&bookings[i])
		guests[i] = bookings[i].Guests
	}

	if peak := domain.PeakSeats(windows, guests); peak > rest.TotalSeats {
		h.log.Warn().
			Str("restaurant_id", rest.ID).
			Int("total_seats", rest.TotalSeats).
			Int("peak_committed", peak).
			Msg("capacity reduced below committed bookings")
	}
}
