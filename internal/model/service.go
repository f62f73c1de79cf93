package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Service is a catalog entry in the `services` table.  Prices are exact
// decimals (DECIMAL(10,2) in the database), never floats.
type Service struct {
    ID          uint64          `json:"id"`          // services.id
    Name        string          `json:"name"`        // services.name (unique)
    Price       decimal.Decimal `json:"price"`       // services.price
    Description *string         `json:"description"` // services.description (nullable)
    CreatedAt   time.Time       `json:"created_at"`  // services.created_at
    UpdatedAt   time.Time       `json:"-"`           // services.updated_at
}

// MasterService links a master user to a service they can perform.
// The (master, service) pair is unique.
type MasterService struct {
    ID        uint64    `json:"id"`         // master_services.id
    MasterID  uint64    `json:"master_id"`  // master_services.master_id
    ServiceID uint64    `json:"service_id"` // master_services.service_id
    CreatedAt time.Time `json:"created_at"` // master_services.created_at
}
