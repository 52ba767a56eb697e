// Package errors provides the structured error codes used by ragquery.
//
// Error Code Format: AABBCCC (7 digits)
//
//   - AA:  Service/Module code (00-99)
//   - BB:  Category code (00-99)
//   - CCC: Sequence number (000-999)
//
// Service Codes (AA):
//
//   - 00: Common/Base errors
//   - 20: RAG query service
//
// Category Codes (BB):
//
//   - 01: Request/Validation errors (400)
//   - 02: Authentication errors (401)
//   - 04: Resource errors (404)
//   - 06: Capacity errors (503)
//   - 07: Internal errors (500)
//   - 10: Upstream/Network errors (500)
//   - 11: Timeout errors
package errors

// Service codes (AA)
const (
	// ServiceCommon is for errors shared by every component.
	ServiceCommon = 0

	// ServiceRAGQuery is for the RAG query pipeline.
	ServiceRAGQuery = 20
)

// Category codes (BB)
const (
	CategoryRequest  = 1
	CategoryAuth     = 2
	CategoryResource = 4
	CategoryCapacity = 6
	CategoryInternal = 7
	CategoryNetwork  = 10
	CategoryTimeout  = 11
)

// MakeCode creates an error code from service, category, and sequence.
func MakeCode(service, category, sequence int) int {
	return service*100000 + category*1000 + sequence
}

// ParseCode splits an error code into service, category, and sequence.
func ParseCode(code int) (service, category, sequence int) {
	service = code / 100000
	category = (code % 100000) / 1000
	sequence = code % 1000
	return
}

// GetCategory returns the category code from an error code.
func GetCategory(code int) int {
	return (code % 100000) / 1000
}

// IsClientError reports whether the code belongs to a caller-side category.
func IsClientError(code int) bool {
	category := GetCategory(code)
	return category >= CategoryRequest && category <= CategoryResource
}
