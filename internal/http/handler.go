package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"muvbackoffice/internal/admin"
	"muvbackoffice/internal/feed"
	"muvbackoffice/internal/lifecycle"
	"muvbackoffice/internal/models"
	"muvbackoffice/internal/services"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Orders      *services.OrderService
	Sessions    *admin.Sessions
	Directory   *admin.Directory
	Feed        *feed.Hub
	RecentLimit int
}

func NewHandler(orders *services.OrderService, sessions *admin.Sessions, directory *admin.Directory, hub *feed.Hub, recentLimit int) *Handler {
	if recentLimit <= 0 {
		recentLimit = 50
	}
	return &Handler{
		Orders:      orders,
		Sessions:    sessions,
		Directory:   directory,
		Feed:        hub,
		RecentLimit: recentLimit,
	}
}

type createOrderRequest struct {
	UserID          string  `json:"userId"`
	CustomerName    string  `json:"customerName"`
	CustomerEmail   string  `json:"customerEmail"`
	CustomerPhone   string  `json:"customerPhone"`
	ProductType     string  `json:"productType"`
	Quantity        int     `json:"quantity"`
	Specifications  string  `json:"specifications"`
	DeliveryAddress string  `json:"deliveryAddress"`
	TotalAmount     float64 `json:"totalAmount"`
}

type paymentDetailsJSON struct {
	Method     string `json:"method"`
	ExternalID string `json:"externalId"`
}

type orderJSON struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	CustomerName    string              `json:"customerName,omitempty"`
	CustomerEmail   string              `json:"customerEmail,omitempty"`
	CustomerPhone   string              `json:"customerPhone,omitempty"`
	ProductType     string              `json:"productType"`
	Quantity        int                 `json:"quantity"`
	Specifications  string              `json:"specifications,omitempty"`
	DeliveryAddress string              `json:"deliveryAddress,omitempty"`
	TotalAmount     float64             `json:"totalAmount"`
	TrackingID      string              `json:"trackingId"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"paymentStatus"`
	PaymentDetails  *paymentDetailsJSON `json:"paymentDetails,omitempty"`
	CreatedAt       string              `json:"createdAt"`
	LastUpdated     string              `json:"lastUpdated"`
}

func toOrderJSON(order *models.Order) orderJSON {
	out := orderJSON{
		ID:              order.ID,
		UserID:          order.UserID,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		ProductType:     order.ProductType,
		Quantity:        order.Quantity,
		Specifications:  order.Specifications,
		DeliveryAddress: order.DeliveryAddress,
		TotalAmount:     order.TotalAmount,
		TrackingID:      order.TrackingID,
		Status:          string(lifecycle.Normalize(order.Status)),
		PaymentStatus:   string(order.PaymentStatus),
		CreatedAt:       order.CreatedAt.Format(time.RFC3339),
		LastUpdated:     order.LastUpdated.Format(time.RFC3339),
	}
	if order.PaymentDetails != nil {
		out.PaymentDetails = &paymentDetailsJSON{
			Method:     order.PaymentDetails.Method,
			ExternalID: order.PaymentDetails.ExternalID,
		}
	}
	return out
}

func toOrderListJSON(orders []*models.Order) []orderJSON {
	out := make([]orderJSON, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderJSON(order))
	}
	return out
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	order, err := h.Orders.Create(r.Context(), services.OrderDraft{
		UserID:          req.UserID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ProductType:     req.ProductType,
		Quantity:        req.Quantity,
		Specifications:  req.Specifications,
		DeliveryAddress: req.DeliveryAddress,
		TotalAmount:     req.TotalAmount,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderJSON(order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}
	order, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(order))
}

func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	orders, err := h.Orders.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListJSON(orders))
}

type confirmPaymentRequest struct {
	OrderID    string `json:"orderId"`
	Method     string `json:"method"`
	ExternalID string `json:"externalId"`
	Outcome    string `json:"outcome"`
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.Orders.ApplyPayment(r.Context(), services.PaymentConfirmation{
		OrderID:    req.OrderID,
		Method:     req.Method,
		ExternalID: req.ExternalID,
		Outcome:    req.Outcome,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(order))
}

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	if status := r.URL.Query().Get("status"); status != "" {
		orders, err := h.Orders.ListByStatus(r.Context(), models.OrderStatus(status))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderListJSON(orders))
		return
	}

	limit := h.RecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= h.RecentLimit {
			limit = n
		}
	}
	orders, err := h.Orders.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListJSON(orders))
}

type updateOrderRequest struct {
	Status         *string             `json:"status"`
	PaymentStatus  *string             `json:"paymentStatus"`
	PaymentDetails *paymentDetailsJSON `json:"paymentDetails"`
}

func (h *Handler) AdminUpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	var change lifecycle.Change
	if req.Status != nil {
		status := models.OrderStatus(*req.Status)
		change.Status = &status
	}
	if req.PaymentStatus != nil {
		payment := models.PaymentStatus(*req.PaymentStatus)
		change.PaymentStatus = &payment
	}
	if req.PaymentDetails != nil {
		change.PaymentDetails = &models.PaymentDetails{
			Method:     req.PaymentDetails.Method,
			ExternalID: req.PaymentDetails.ExternalID,
		}
	}

	order, err := h.Orders.Update(r.Context(), orderID, change)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(order))
}

func (h *Handler) AdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if err := h.Orders.Delete(r.Context(), orderID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": orderID})
}

type loginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.Sessions.RequestOTP(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}
	// The code travels through the notifier only, never through this response.
	writeJSON(w, http.StatusOK, map[string]string{"status": "otp_sent"})
}

func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.Sessions.ResendOTP(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "otp_sent"})
}

type sessionResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	IssuedAt  string `json:"issuedAt"`
	ExpiresAt string `json:"expiresAt"`
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	sess, err := h.Sessions.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     sess.Token,
		Email:     sess.Email,
		IssuedAt:  sess.IssuedAt.Format(time.RFC3339),
		ExpiresAt: sess.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

type adminJSON struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.Directory.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]adminJSON, 0, len(admins))
	for _, a := range admins {
		out = append(out, adminJSON{Email: a.Email, Name: a.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing email")
		return
	}
	if err := h.Directory.Add(r.Context(), req.Email, req.Name); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"added": req.Email})
}

func (h *Handler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := h.Directory.Remove(r.Context(), email); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": email})
}
