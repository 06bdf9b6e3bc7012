package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/service"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.CatalogService
	loyalty  *service.LoyaltyService
	orders   *service.OrderService
	sessions *service.SessionService
	reports  *service.ReportService
	settings *service.SettingsService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	loyalty *service.LoyaltyService,
	orders *service.OrderService,
	sessions *service.SessionService,
	reports *service.ReportService,
	settings *service.SettingsService,
) *Handler {
	return &Handler{
		catalog:  catalog,
		loyalty:  loyalty,
		orders:   orders,
		sessions: sessions,
		reports:  reports,
		settings: settings,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/products", h.createProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)

		v1.GET("/categories", h.listCategories)
		v1.POST("/categories", h.createCategory)
		v1.PUT("/categories/:id", h.updateCategory)
		v1.DELETE("/categories/:id", h.deleteCategory)

		v1.GET("/members", h.listMembers)
		v1.GET("/members/search", h.searchMembers)
		v1.GET("/members/:id", h.getMember)
		v1.POST("/members", h.registerMember)
		v1.PUT("/members/:id", h.updateMember)
		v1.DELETE("/members/:id", h.deleteMember)
		v1.GET("/members/:id/history", h.getPointsHistory)
		v1.GET("/members/:id/points/redeem-quote", h.redeemQuote)
		v1.POST("/members/:id/points/add", h.addPoints)
		v1.POST("/members/:id/points/redeem", h.redeemPoints)
		v1.POST("/members/:id/points/adjust", h.adjustPoints)

		v1.POST("/orders", h.checkout)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.PATCH("/orders/:id/status", h.updateOrderStatus)

		v1.GET("/sessions", h.listSessions)
		v1.GET("/sessions/current", h.getCurrentSession)
		v1.GET("/sessions/last", h.getLastSession)
		v1.POST("/sessions", h.openSession)
		v1.GET("/sessions/:id/sales", h.getSessionSales)
		v1.POST("/sessions/:id/close", h.closeSession)

		v1.GET("/settings", h.getSettings)
		v1.PUT("/settings", h.putSettings)
		v1.GET("/settings/points", h.getPointsConfig)

		v1.GET("/reports/today", h.getTodaySales)
		v1.GET("/reports/summary", h.getSalesSummary)
		v1.GET("/reports/top-products", h.getTopProducts)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrMemberNotFound),
		errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrCategoryNotFound),
		errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrPhoneExists),
		errors.Is(err, store.ErrCategoryInUse),
		errors.Is(err, store.ErrSessionAlreadyOpen),
		errors.Is(err, store.ErrSessionClosed),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNoOpenSession):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrRedeemLimitExceeded),
		errors.Is(err, service.ErrInsufficientPoints),
		errors.Is(err, service.ErrInvalidAdjustment),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// ---- Catalog ----

func (h *Handler) listProducts(c *gin.Context) {
	availableOnly := c.Query("available") == "true"

	var categoryID *int64
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
			return
		}
		categoryID = &id
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), availableOnly, categoryID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Price is a pointer so a free (zero-price) product passes binding.
type productRequest struct {
	Name          string  `json:"name" binding:"required"`
	Price         *int64  `json:"price" binding:"required,min=0"`
	CategoryID    int64   `json:"category_id" binding:"required"`
	ImageURL      *string `json:"image_url"`
	IsAvailable   *bool   `json:"is_available"`
	PointsPerItem *int64  `json:"points_per_item"`
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	product := &models.Product{
		Name:          req.Name,
		Price:         *req.Price,
		CategoryID:    req.CategoryID,
		ImageURL:      req.ImageURL,
		IsAvailable:   available,
		PointsPerItem: req.PointsPerItem,
	}
	if err := h.catalog.CreateProduct(c.Request.Context(), product); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	product := &models.Product{
		ID:            id,
		Name:          req.Name,
		Price:         *req.Price,
		CategoryID:    req.CategoryID,
		ImageURL:      req.ImageURL,
		IsAvailable:   available,
		PointsPerItem: req.PointsPerItem,
	}
	if err := h.catalog.UpdateProduct(c.Request.Context(), product); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type categoryRequest struct {
	Name      string  `json:"name" binding:"required"`
	Icon      *string `json:"icon"`
	SortOrder int     `json:"sort_order"`
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	category := &models.Category{Name: req.Name, Icon: req.Icon, SortOrder: req.SortOrder}
	if err := h.catalog.CreateCategory(c.Request.Context(), category); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	category := &models.Category{ID: id, Name: req.Name, Icon: req.Icon, SortOrder: req.SortOrder}
	if err := h.catalog.UpdateCategory(c.Request.Context(), category); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- Members / Loyalty ----

func (h *Handler) listMembers(c *gin.Context) {
	if phone := c.Query("phone"); phone != "" {
		member, err := h.loyalty.GetMemberByPhone(c.Request.Context(), phone)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if member == nil {
			c.JSON(http.StatusOK, gin.H{"members": []models.Member{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": []models.Member{*member}})
		return
	}

	members, err := h.loyalty.ListMembers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *Handler) searchMembers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter q"})
		return
	}
	members, err := h.loyalty.SearchMembers(c.Request.Context(), query)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *Handler) getMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	member, err := h.loyalty.GetMember(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

type memberRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

func (h *Handler) registerMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	member, err := h.loyalty.RegisterMember(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *Handler) updateMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	member, err := h.loyalty.UpdateMember(c.Request.Context(), id, req.Name, req.Phone)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *Handler) deleteMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.loyalty.DeleteMember(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getPointsHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := h.loyalty.GetPointsHistory(c.Request.Context(), id, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *Handler) redeemQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	subtotal, err := strconv.ParseInt(c.Query("subtotal"), 10, 64)
	if err != nil || subtotal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subtotal"})
		return
	}
	quote, err := h.loyalty.QuoteRedemption(c.Request.Context(), id, subtotal)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

type pointsRequest struct {
	Points      *int64 `json:"points" binding:"required"`
	OrderID     *int64 `json:"order_id"`
	Description string `json:"description"`
}

func (h *Handler) addPoints(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	member, err := h.loyalty.AddPoints(c.Request.Context(), id, *req.Points, req.OrderID, req.Description)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *Handler) redeemPoints(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	member, err := h.loyalty.RedeemPoints(c.Request.Context(), id, *req.Points, req.OrderID, req.Description)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// Delta is a pointer so a zero delta reaches the service's own
// validation instead of dying at binding.
type adjustPointsRequest struct {
	Delta  *int64 `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) adjustPoints(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req adjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	member, err := h.loyalty.AdjustPoints(c.Request.Context(), id, *req.Delta, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// ---- Orders ----

func (h *Handler) checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.orders.Checkout(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) listOrders(c *gin.Context) {
	ctx := c.Request.Context()

	startRaw, endRaw := c.Query("start"), c.Query("end")
	if startRaw != "" && endRaw != "" {
		start, err1 := time.Parse(time.RFC3339, startRaw)
		end, err2 := time.Parse(time.RFC3339, endRaw)
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be RFC3339 timestamps"})
			return
		}
		orders, err := h.orders.ListOrdersByDateRange(ctx, start, end)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	orders, err := h.orders.ListOrders(ctx, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, items, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

type orderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var order *models.Order
	var err error
	if req.Status == models.OrderStatusCancelled && req.Reason != "" {
		order, err = h.orders.CancelOrder(c.Request.Context(), id, req.Reason)
	} else {
		order, err = h.orders.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ---- Sessions ----

func (h *Handler) listSessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	sessions, err := h.sessions.ListSessions(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) getCurrentSession(c *gin.Context) {
	session, err := h.sessions.GetCurrentSession(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *Handler) getLastSession(c *gin.Context) {
	session, err := h.sessions.GetLastSession(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

type sessionRequest struct {
	Actor string `json:"actor"`
}

func (h *Handler) openSession(c *gin.Context) {
	var req sessionRequest
	_ = c.ShouldBindJSON(&req)

	session, err := h.sessions.OpenSession(c.Request.Context(), req.Actor)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) getSessionSales(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sales, err := h.sessions.GetSessionSales(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *Handler) closeSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req sessionRequest
	_ = c.ShouldBindJSON(&req)

	session, err := h.sessions.CloseSession(c.Request.Context(), id, req.Actor)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ---- Settings ----

func (h *Handler) getSettings(c *gin.Context) {
	settings, err := h.settings.GetAllSettings(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *Handler) putSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No settings provided"})
		return
	}
	if err := h.settings.SetBulkSettings(c.Request.Context(), req); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getPointsConfig(c *gin.Context) {
	cfg, err := h.settings.GetPointsConfig(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// ---- Reports ----

func (h *Handler) getTodaySales(c *gin.Context) {
	sales, err := h.reports.GetTodaySales(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *Handler) getSalesSummary(c *gin.Context) {
	start, err1 := time.Parse(time.RFC3339, c.Query("start"))
	end, err2 := time.Parse(time.RFC3339, c.Query("end"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be RFC3339 timestamps"})
		return
	}

	summary, err := h.reports.GetSalesSummary(c.Request.Context(), start, end)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) getTopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	products, err := h.reports.GetTopProducts(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"top_products": products})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
