package contract

import "github.com/alexanderramin/slotwise/internal/app"

type CreateOrderRequest = app.CreateOrderRequest

type CreateOrderResponse = app.CreateOrderResponse

type OrderErrorCode = app.OrderErrorCode

const (
	OrderErrInvalidQuantity OrderErrorCode = app.OrderErrInvalidQuantity
	OrderErrInvalidSize     OrderErrorCode = app.OrderErrInvalidSize
	OrderErrUnknownStep     OrderErrorCode = app.OrderErrUnknownStep
	OrderErrNoResources     OrderErrorCode = app.OrderErrNoResources
)

type OrderError = app.OrderError
