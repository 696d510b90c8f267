// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// Order statuses the assistant cares about.
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusPending   = "pending"
	OrderStatusCancelled = "cancelled"
)

// Order is a storefront order with its line items.
// Read-only from the assistant's perspective.
type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId,omitempty"`
	TotalAmount    float64     `json:"totalAmount"`
	ShippingAmount float64     `json:"shippingAmount"`
	Status         string      `json:"status"`
	PaymentStatus  string      `json:"paymentStatus"`
	CreatedAt      time.Time   `json:"createdAt"`
	Items          []OrderItem `json:"items"`
}

// Confirmed reports whether the order counts towards revenue.
func (o Order) Confirmed() bool {
	return o.Status == OrderStatusConfirmed
}

// OrderItem is one line of an order.
type OrderItem struct {
	Quantity   int         `json:"quantity"`
	UnitPrice  float64     `json:"unitPrice"`
	TotalPrice float64     `json:"totalPrice"`
	Product    *ProductRef `json:"product,omitempty"`
}

// ProductRef is the product snapshot attached to an order item.
type ProductRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
}

// Product is a catalog entry with its reviews.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Brand     string    `json:"brand"`
	Price     float64   `json:"price"`
	MRP       float64   `json:"mrp"`
	Stock     int       `json:"stock"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	Reviews   []Review  `json:"reviews,omitempty"`
}

// AverageRating returns the mean review rating, 0 without reviews.
func (p Product) AverageRating() float64 {
	if len(p.Reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range p.Reviews {
		sum += float64(r.Rating)
	}
	return sum / float64(len(p.Reviews))
}

// StockStatus buckets stock into LOW (<=10), MEDIUM (<=50) or HIGH.
func (p Product) StockStatus() string {
	switch {
	case p.Stock <= 10:
		return "LOW"
	case p.Stock <= 50:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}

// Review is a customer rating of a product.
type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is a customer account.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// CustomerStats is the customer rollup.
type CustomerStats struct {
	TotalCustomers  int     `json:"totalCustomers"`
	PayingCustomers int     `json:"payingCustomers"`
	OrdersPerBuyer  float64 `json:"ordersPerBuyer"`
}

// Rollup is one row of a category or brand aggregate.
type Rollup struct {
	Name       string  `json:"name"`
	Revenue    float64 `json:"revenue"`
	UnitsSold  int     `json:"unitsSold"`
	OrderCount int     `json:"orderCount"`
}

// Dataset is a bulk import of business records.
type Dataset struct {
	Orders   []Order   `json:"orders"`
	Products []Product `json:"products"`
	Profiles []Profile `json:"profiles"`
}

// ResponseType is the kind of answer the assistant renders.
type ResponseType string

const (
	ResponseText   ResponseType = "text"
	ResponseTable  ResponseType = "table"
	ResponseChart  ResponseType = "chart"
	ResponseAction ResponseType = "action"
)

// Valid reports whether t is one of the known response types.
func (t ResponseType) Valid() bool {
	switch t {
	case ResponseText, ResponseTable, ResponseChart, ResponseAction:
		return true
	}
	return false
}

// Action is a suggested follow-up query.
type Action struct {
	Label string `json:"label" jsonschema:"required"`
	Query string `json:"query" jsonschema:"required"`
}

// ResponseEnvelope is the structured answer returned to callers.
// Type and Content are always set; Actions and Insights are never nil.
type ResponseEnvelope struct {
	Type      ResponseType   `json:"type" jsonschema:"required,enum=text,enum=table,enum=chart,enum=action"`
	Content   string         `json:"content" jsonschema:"required"`
	ChartSpec map[string]any `json:"chartSpec,omitempty"`
	Actions   []Action       `json:"actions"`
	Insights  []string       `json:"insights"`
}

// Normalize fills the defaults the envelope contract requires.
func (e *ResponseEnvelope) Normalize() {
	if e.Type == "" {
		e.Type = ResponseText
	}
	if e.Actions == nil {
		e.Actions = []Action{}
	}
	if e.Insights == nil {
		e.Insights = []string{}
	}
}

// Exchange is one request/response pair in a session log.
type Exchange struct {
	Timestamp         time.Time        `json:"timestamp"`
	UserMessage       string           `json:"userMessage"`
	AssistantResponse ResponseEnvelope `json:"assistantResponse"`
	Type              string           `json:"type"`
}

// ExchangeType tags session log entries.
const ExchangeType = "exchange"

// Query is one staff question.
type Query struct {
	Text         string
	SessionID    string
	AskerID      string
	PriorContext map[string]any
}

// Reply is what the assistant hands back for a query.
type Reply struct {
	Response  ResponseEnvelope `json:"response"`
	SessionID string           `json:"sessionId"`
	Timestamp time.Time        `json:"timestamp"`
}
