package types

import "fmt"

// APIError is an error that carries an HTTP status code and a machine-readable
// type tag. The global Fiber error handler turns it into a structured response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}
