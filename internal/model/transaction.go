package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Transaction is an immutable ledger entry tied to a shift.  Payments are
// recorded while the shift is open; cancellations are compensating
// entries that reverse a prior payment without deleting it, copying its
// amount and pointing back at it through RelatedTransactionID.
//
// Fields:
//  ID                   – primary key identifier.
//  ShiftID              – owning shift.
//  OperatorID           – operator of the owning shift.
//  Amount               – exact decimal amount (copied from the original
//                         payment for cancellations).
//  Type                 – TxnPayment or TxnCancellation.
//  Description          – free-text description / cancellation reason.
//  RelatedTransactionID – for cancellations, the reversed payment; nil
//                         for payments.
//  CreatedAt            – timestamp of creation.
type Transaction struct {
    ID                   uint64          `json:"id"`                     // transactions.id
    ShiftID              uint64          `json:"shift_id"`               // transactions.shift_id
    OperatorID           uint64          `json:"operator_id"`            // transactions.operator_id
    Amount               decimal.Decimal `json:"amount"`                 // transactions.amount
    Type                 string          `json:"transaction_type"`       // transactions.transaction_type
    Description          *string         `json:"description"`            // transactions.description (nullable)
    RelatedTransactionID *uint64         `json:"related_transaction_id"` // transactions.related_transaction_id (nullable)
    CreatedAt            time.Time       `json:"created_at"`             // transactions.created_at
}

// Transaction type values.
const (
    TxnPayment      = "payment"
    TxnCancellation = "cancellation"
)
