package errors

import "net/http"

// RAG query pipeline errors (service 20).
var (
	// Request validation (category 01)
	ErrInvalidQuestion = Register(New(MakeCode(ServiceRAGQuery, CategoryRequest, 1), http.StatusBadRequest, "Missing question"))
	ErrInvalidBody     = Register(New(MakeCode(ServiceRAGQuery, CategoryRequest, 2), http.StatusBadRequest, "Invalid request body"))

	// Backend failures (category 10)
	ErrRetrieval  = RegisterKind(KindRetrieval, New(MakeCode(ServiceRAGQuery, CategoryNetwork, 1), http.StatusInternalServerError, "retrieval failed"))
	ErrGeneration = RegisterKind(KindGeneration, New(MakeCode(ServiceRAGQuery, CategoryNetwork, 2), http.StatusInternalServerError, "generation failed"))

	// Capacity (category 06)
	ErrServiceBusy = RegisterKind(KindCapacity, New(MakeCode(ServiceRAGQuery, CategoryCapacity, 1), http.StatusServiceUnavailable, "service busy"))
)
