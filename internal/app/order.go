package app

import (
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
)

type CreateOrderRequest struct {
	ProductID   string
	OrderNumber string
	Quantity    int
	Width       float64
	Height      float64
	DueDate     *time.Time
	Configs     domain.OrderConfigs
}

// CreateOrderResponse carries the order, its task snapshot and the machines
// excluded from a task because their rules yield no duration.
type CreateOrderResponse struct {
	Order    *domain.Order
	Tasks    []domain.OrderTask
	Warnings []string
}

type OrderErrorCode string

const (
	OrderErrInvalidQuantity OrderErrorCode = "INVALID_QUANTITY"
	OrderErrInvalidSize     OrderErrorCode = "INVALID_SIZE"
	OrderErrUnknownStep     OrderErrorCode = "UNKNOWN_STEP"
	OrderErrNoResources     OrderErrorCode = "NO_RESOURCES"
)

type OrderError struct {
	Code    OrderErrorCode
	Message string
}

func (e *OrderError) Error() string {
	return string(e.Code) + ": " + e.Message
}
