// Package queue defines message payloads exchanged over the message broker.
package queue

// ShiftEvent is published when a shift is opened or closed. It carries
// enough information for downstream consumers to log or trigger reporting
// without querying the primary database. The totals fields are filled in
// only for close events; an open event has them empty.
type ShiftEvent struct {
    ShiftID            uint64 `json:"shift_id"`
    OperatorID         uint64 `json:"operator_id"`
    OperatorName       string `json:"operator_name"`
    Action             string `json:"action"` // "opened" | "closed"
    OpenedAt           string `json:"opened_at"`
    ClosedAt           string `json:"closed_at,omitempty"`
    TotalPayments      string `json:"total_payments,omitempty"`
    TotalCancellations string `json:"total_cancellations,omitempty"`
    NetAmount          string `json:"net_amount,omitempty"`
    OccurredAt         string `json:"occurred_at"`
}
