package form

import (
	"time"

	"github.com/google/uuid"
)

// Receipt records one accepted submission. Nothing is persisted; the ID
// only lets logs and callers correlate a submit with its outcome.
type Receipt struct {
	ID      uuid.UUID `json:"id" yaml:"id"`
	Form    string    `json:"form" yaml:"form"`
	At      time.Time `json:"at" yaml:"at"`
	Message string    `json:"message" yaml:"message"`
}

// NewReceipt stamps a receipt for formName with a fresh random ID.
func NewReceipt(formName string, at time.Time, message string) Receipt {
	return Receipt{
		ID:      uuid.New(),
		Form:    formName,
		At:      at,
		Message: message,
	}
}
