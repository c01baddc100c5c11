package skedda

// bookingRequest mirrors the body the Skedda web app posts to /bookings.
// Field names must match the service schema exactly; only start, end,
// spaces, venue and venueuser vary.
type bookingRequest struct {
	Booking bookingPayload `json:"booking"`
}

type bookingPayload struct {
	EndOfLastOccurrence      *string  `json:"endOfLastOccurrence"`
	Title                    *string  `json:"title"`
	Price                    int      `json:"price"`
	ChargeTransactionID      *string  `json:"chargeTransactionId"`
	InvoiceID                *string  `json:"invoiceId"`
	LockInMargin             *int     `json:"lockInMargin"`
	StripPrivateEventDetails bool     `json:"stripPrivateEventDetails"`
	UnrecognizedOrganizer    bool     `json:"unrecognizedOrganizer"`
	Type                     int      `json:"type"`
	PaymentStatus            int      `json:"paymentStatus"`
	RecurrenceRule           *string  `json:"recurrenceRule"`
	DecoupleDate             *string  `json:"decoupleDate"`
	CreatedDate              *string  `json:"createdDate"`
	CustomFields             []any    `json:"customFields"`
	PiID                     *string  `json:"piId"`
	CheckInAudits            []any    `json:"checkInAudits"`
	AllowInviteOthers        bool     `json:"allowInviteOthers"`
	AddConference            bool     `json:"addConference"`
	HideAttendees            bool     `json:"hideAttendees"`
	AvailabilityStatus       int      `json:"availabilityStatus"`
	SyncType                 *int     `json:"syncType"`
	Attendees                []string `json:"attendees"`
	Start                    string   `json:"start"`
	End                      string   `json:"end"`
	ArbitraryErrors          any      `json:"arbitraryerrors"`
	Spaces                   []string `json:"spaces"`
	VenueUser                string   `json:"venueuser"`
	Venue                    string   `json:"venue"`
	DecoupleBooking          any      `json:"decoupleBooking"`
}

func newBookingRequest(spaceID, start, end, venueID, userID string) bookingRequest {
	return bookingRequest{Booking: bookingPayload{
		Type:               1,
		CustomFields:       []any{},
		HideAttendees:      true,
		AvailabilityStatus: 1,
		Attendees:          []string{},
		Start:              start,
		End:                end,
		Spaces:             []string{spaceID},
		VenueUser:          userID,
		Venue:              venueID,
	}}
}
