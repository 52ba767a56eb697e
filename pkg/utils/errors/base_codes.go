package errors

import "net/http"

// Common errors shared by every component.
var (
	ErrBadRequest      = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), http.StatusBadRequest, "Bad request"))
	ErrRequestTooLarge = Register(New(MakeCode(ServiceCommon, CategoryRequest, 2), http.StatusRequestEntityTooLarge, "Request body too large"))
	ErrUnauthorized    = Register(New(MakeCode(ServiceCommon, CategoryAuth, 1), http.StatusUnauthorized, "Unauthorized"))

	ErrRouteNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), http.StatusNotFound, "Route not found"))

	ErrInternal = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), http.StatusInternalServerError, "Internal server error"))
	ErrPanic    = Register(New(MakeCode(ServiceCommon, CategoryInternal, 2), http.StatusInternalServerError, "Unexpected error"))
)
