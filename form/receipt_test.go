package form

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewReceipt(t *testing.T) {
	at := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

	a := NewReceipt("registration", at, "ok")
	b := NewReceipt("registration", at, "ok")

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "every receipt gets its own ID")
	assert.Equal(t, "registration", a.Form)
	assert.True(t, at.Equal(a.At))
	assert.Equal(t, "ok", a.Message)
}
