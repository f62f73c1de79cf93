package model

import "time"

// Record is a legacy service-desk entry in the `records` table.  It is
// unrelated to the shift ledger and kept as plain CRUD.
type Record struct {
    ID                 uint64    `json:"id"`                  // records.id
    Client             string    `json:"client"`              // records.client
    Car                string    `json:"car"`                 // records.car
    Service            string    `json:"service"`             // records.service
    Price              int       `json:"price"`               // records.price
    Date               time.Time `json:"date"`                // records.date
    Status             string    `json:"status"`              // records.status
    PaymentAmount      *int      `json:"payment_amount"`      // records.payment_amount (nullable)
    Comments           *string   `json:"comments"`            // records.comments (nullable)
    CancellationReason *string   `json:"cancellation_reason"` // records.cancellation_reason (nullable)
    CreatedAt          time.Time `json:"created_at"`          // records.created_at
    UpdatedAt          time.Time `json:"updated_at"`          // records.updated_at
}
