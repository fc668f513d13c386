package model

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "pending"
	PurchaseStatusPaid    PurchaseStatus = "paid"
)

// Purchase is one attempted like-pack purchase. A row is created in pending
// state when the checkout session is created and flipped to paid exactly once
// by the payment verifier. PurchaseToken carries the gateway session ID and
// is unique per row.
type Purchase struct {
	ID            string         `json:"id" db:"id"`
	UserID        string         `json:"userId" db:"user_id"`
	ProductID     string         `json:"productId" db:"product_id"`
	PackName      string         `json:"packName" db:"pack_name"`
	LikesAmount   int64          `json:"likesAmount" db:"likes_amount"`
	PriceAmount   int64          `json:"priceAmount" db:"price_amount"`
	Currency      string         `json:"currency" db:"currency"`
	PurchaseToken string         `json:"purchaseToken" db:"purchase_token"`
	Status        PurchaseStatus `json:"status" db:"status"`
	VerifiedAt    sql.NullTime   `json:"verifiedAt" db:"verified_at"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at"`
}

// LikeBalance is the per-user credit balance. Balance always equals
// TotalPurchased - TotalUsed once in-flight increments settle.
type LikeBalance struct {
	UserID         string    `json:"userId" db:"user_id"`
	Balance        int64     `json:"balance" db:"balance"`
	TotalPurchased int64     `json:"totalPurchased" db:"total_purchased"`
	TotalUsed      int64     `json:"totalUsed" db:"total_used"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeUsage    TransactionType = "usage"
	TransactionTypeRefund   TransactionType = "refund"
)

type TransactionStatus string

const (
	TransactionStatusSucceeded TransactionStatus = "succeeded"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an append-only audit entry. Amount is in major currency
// units; failing to write one never rolls back the credit it documents.
type Transaction struct {
	ID          string            `json:"id" db:"id"`
	UserID      string            `json:"userId" db:"user_id"`
	Type        TransactionType   `json:"transactionType" db:"transaction_type"`
	Amount      decimal.Decimal   `json:"amount" db:"amount"`
	Currency    string            `json:"currency" db:"currency"`
	Status      TransactionStatus `json:"status" db:"status"`
	ReferenceID string            `json:"referenceId" db:"reference_id"`
	Metadata    Metadata          `json:"metadata" db:"metadata"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
}

// Metadata is an opaque key-value bag stored as a JSON column.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
}
