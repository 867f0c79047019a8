package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingCollectsAllValidationErrors(t *testing.T) {
	// Input validation happens before the reservation service is touched.
	h := NewBookingHandler(nil, nil)

	rec := postJSON(t, h.Create, `{"seats": [], "payment_method": "barter"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := fieldsOf(t, rec)
	assert.Contains(t, fields, "event_id")
	assert.Contains(t, fields, "seats")
	assert.Contains(t, fields["payment_method"], "must be one of")
}

func TestCreateBookingReportsEveryBadSeat(t *testing.T) {
	h := NewBookingHandler(nil, nil)

	rec := postJSON(t, h.Create, `{
        "event_id": 1,
        "seats": [
            {"row": "", "number": 1},
            {"row": "A", "number": 0},
            {"row": "", "number": 0}
        ]
    }`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := fieldsOf(t, rec)
	assert.Contains(t, fields, "seats[0].row")
	assert.Contains(t, fields, "seats[1].number")
	assert.Contains(t, fields, "seats[2].row")
	assert.Contains(t, fields, "seats[2].number")
	assert.NotContains(t, fields, "event_id")
}

func TestValidateTicketCollectsAllValidationErrors(t *testing.T) {
	h := NewTicketHandler(nil, nil)

	rec := postJSON(t, h.Validate, `{"ticket_id": 0, "qr_data": ""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := fieldsOf(t, rec)
	assert.Equal(t, "ticket_id is required", fields["ticket_id"])
	assert.Equal(t, "qr_data is required", fields["qr_data"])
}
