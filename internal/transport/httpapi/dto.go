package httpapi

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// newValidator регистрирует json-имена полей и правило notblank.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

type registerRequest struct {
	Name            string `json:"name" validate:"notblank,max=200"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Document        string `json:"document" validate:"notblank,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Document: u.Document}
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type productRequest struct {
	Name            string          `json:"name" validate:"notblank"`
	Value           decimal.Decimal `json:"value"`
	Description     string          `json:"description" validate:"notblank"`
	AvailableAmount int             `json:"availableAmount" validate:"min=0"`
	Image           string          `json:"image"`
}

func (r productRequest) toDomain() domain.Product {
	return domain.Product{
		Name:            r.Name,
		Value:           r.Value,
		Description:     r.Description,
		AvailableAmount: r.AvailableAmount,
		Image:           r.Image,
	}
}

type productResponse struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Value           string     `json:"value"`
	Description     string     `json:"description"`
	AvailableAmount int        `json:"availableAmount"`
	Image           string     `json:"image,omitempty"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Value:           p.Value.StringFixed(2),
		Description:     p.Description,
		AvailableAmount: p.AvailableAmount,
		Image:           p.Image,
		DeletedAt:       p.DeletedAt,
	}
}

type addressRequest struct {
	Street       string `json:"street" validate:"notblank"`
	Number       string `json:"number" validate:"notblank"`
	Neighborhood string `json:"neighborhood" validate:"notblank"`
	ZipCode      string `json:"zipCode" validate:"notblank"`
	Complement   string `json:"complement,omitempty"`
	City         string `json:"city" validate:"notblank"`
	State        string `json:"state" validate:"notblank"`
}

func (r addressRequest) toDomain() domain.AddressFields {
	return domain.AddressFields{
		Street:       r.Street,
		Number:       r.Number,
		Neighborhood: r.Neighborhood,
		ZipCode:      r.ZipCode,
		Complement:   r.Complement,
		City:         r.City,
		State:        r.State,
	}
}

type addressResponse struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"userId"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	ZipCode      string `json:"zipCode"`
	Complement   string `json:"complement,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
}

func toAddressResponse(a domain.Address) addressResponse {
	return addressResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		Street:       a.Street,
		Number:       a.Number,
		Neighborhood: a.Neighborhood,
		ZipCode:      a.ZipCode,
		Complement:   a.Complement,
		City:         a.City,
		State:        a.State,
	}
}

// Количество и наличие позиций проверяет сервис заказов: он отдаёт
// отдельные ошибки для пустого заказа и неположительного количества.
type orderItemRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Amount    int   `json:"amount"`
}

type createOrderRequest struct {
	AddressID *int64             `json:"addressId,omitempty" validate:"omitempty,gt=0"`
	Address   *addressRequest    `json:"address,omitempty"`
	Items     []orderItemRequest `json:"items" validate:"dive"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"notblank"`
}

type orderItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	Amount    int    `json:"amount"`
	Value     string `json:"value"`
	Total     string `json:"total"`
}

type orderResponse struct {
	ID             int64               `json:"id"`
	UserID         int64               `json:"userId"`
	AddressID      int64               `json:"addressId"`
	Status         domain.OrderStatus  `json:"status"`
	PaymentStatus  string              `json:"paymentStatus"`
	ShippingStatus string              `json:"shippingStatus"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	Items          []orderItemResponse `json:"items,omitempty"`
	Total          string              `json:"total,omitempty"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		AddressID:      o.AddressID,
		Status:         o.Status,
		PaymentStatus:  o.Status.PaymentStatus(),
		ShippingStatus: o.Status.ShippingStatus(),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toOrderDetailsResponse(o domain.OrderWithTotal) orderResponse {
	resp := toOrderResponse(o.Order)
	resp.Items = make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Amount:    item.Amount,
			Value:     item.Value.StringFixed(2),
			Total:     item.TotalValue().StringFixed(2),
		})
	}
	resp.Total = o.Total.StringFixed(2)
	return resp
}

type totalResponse struct {
	OrderID int64  `json:"orderId"`
	Total   string `json:"total"`
}

type timelineEventResponse struct {
	Type     string             `json:"type"`
	Status   domain.OrderStatus `json:"status"`
	Reason   string             `json:"reason,omitempty"`
	Occurred time.Time          `json:"occurredAt"`
}

func mapSlice[S, D any](src []S, fn func(S) D) []D {
	out := make([]D, 0, len(src))
	for _, v := range src {
		out = append(out, fn(v))
	}
	return out
}
