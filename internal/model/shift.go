package model

import "time"

// Shift is a bounded working session for one operator, during which
// payments may be recorded.  A shift is created open and closed exactly
// once; it never reopens.  The open_flag sentinel column backs the
// at-most-one-open-shift-per-operator unique key and is not exposed
// through the API.
//
// Fields:
//  ID         – primary key identifier.
//  OperatorID – owning operator (users.id, role operator).
//  OpenedAt   – when the shift was opened.
//  ClosedAt   – when the shift was closed (nil while open).
//  Status     – ShiftOpen or ShiftClosed.
//  CreatedAt  – timestamp of creation.
type Shift struct {
    ID         uint64     `json:"id"`          // shifts.id
    OperatorID uint64     `json:"operator_id"` // shifts.operator_id
    OpenedAt   time.Time  `json:"opened_at"`   // shifts.opened_at
    ClosedAt   *time.Time `json:"closed_at"`   // shifts.closed_at (nullable)
    Status     string     `json:"status"`      // shifts.status
    CreatedAt  time.Time  `json:"created_at"`  // shifts.created_at
}

// Shift status values.
const (
    ShiftOpen   = "open"
    ShiftClosed = "closed"
)

// ShiftLog is an append-only audit entry written in the same database
// transaction as the lifecycle transition it records.
//
// Fields:
//  ID         – primary key identifier.
//  ShiftID    – shift the entry belongs to.
//  OperatorID – operator who performed the action.
//  Action     – LogOpened or LogClosed.
//  Timestamp  – when the transition happened.
//  Details    – free-text description.
type ShiftLog struct {
    ID         uint64    `json:"id"`          // shift_logs.id
    ShiftID    uint64    `json:"shift_id"`    // shift_logs.shift_id
    OperatorID uint64    `json:"operator_id"` // shift_logs.operator_id
    Action     string    `json:"action"`      // shift_logs.action
    Timestamp  time.Time `json:"timestamp"`   // shift_logs.timestamp
    Details    *string   `json:"details"`     // shift_logs.details (nullable)
    CreatedAt  time.Time `json:"created_at"`  // shift_logs.created_at
}

// Shift log action values.
const (
    LogOpened = "opened"
    LogClosed = "closed"
)
