package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductKind string

const (
	KindCake      ProductKind = "cake"
	KindBread     ProductKind = "bread"
	KindMiniDonut ProductKind = "minidonut"
	KindBite      ProductKind = "bite"
)

// LineItem is one priced product entry in an order. Kind selects which of
// the detail fields are meaningful.
type LineItem struct {
	Kind    ProductKind `json:"kind" bson:"kind"`
	Details ItemDetails `json:"details" bson:"details"`
}

// ItemDetails carries the union of per-kind fields. Quantity is decoded as a
// float so malformed values reach validation instead of failing JSON decode.
type ItemDetails struct {
	Name       string  `json:"name,omitempty" bson:"name,omitempty"`
	ID         string  `json:"id,omitempty" bson:"id,omitempty"`
	Size       string  `json:"size,omitempty" bson:"size,omitempty"`
	Filling    string  `json:"filling,omitempty" bson:"filling,omitempty"`
	Bottom     string  `json:"bottom,omitempty" bson:"bottom,omitempty"`
	Frosting   string  `json:"frosting,omitempty" bson:"frosting,omitempty"`
	Text       string  `json:"text,omitempty" bson:"text,omitempty"`
	Decoration string  `json:"decoration,omitempty" bson:"decoration,omitempty"`
	Quantity   float64 `json:"quantity,omitempty" bson:"quantity,omitempty"`
}

// Order is the aggregate root. ExternalID is the identity shared with
// customers and the payment provider; the Mongo ObjectID stays internal.
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ExternalID        string             `bson:"order_id" json:"order_id"`
	CustomerName      string             `bson:"name" json:"name"`
	Phone             string             `bson:"phone" json:"phone"`
	Email             string             `bson:"email" json:"email"`
	PickupDate        time.Time          `bson:"pickup_date" json:"pickup_date"`
	LineItems         []LineItem         `bson:"line_items" json:"line_items"`
	Message           string             `bson:"message,omitempty" json:"message,omitempty"`
	TotalAmount       int64              `bson:"total_amount" json:"total_amount"`
	Currency          string             `bson:"currency" json:"currency"`
	PaymentStatus     PaymentStatus      `bson:"payment_status" json:"payment_status"`
	PaymentProvider   string             `bson:"payment_provider,omitempty" json:"payment_provider,omitempty"`
	CheckoutSessionID string             `bson:"checkout_session_id,omitempty" json:"checkout_session_id,omitempty"`
	PaymentID         string             `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
	PaidAt            *time.Time         `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	EmailSentAt       *time.Time         `bson:"email_sent_at,omitempty" json:"email_sent_at,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}
