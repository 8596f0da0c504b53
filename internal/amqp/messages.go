package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Routing keys double as queue names on the direct exchange.
const (
	RoutingKeyPaymentRecorded = "payment.recorded"
	RoutingKeyRenewalReminder = "renewal.reminder"
)

// PaymentRecordedMessage announces a stored payment. Consumers fetch the
// full record from the database; the message stays lightweight.
type PaymentRecordedMessage struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	EndDate    string    `json:"end_date"`
	Timestamp  time.Time `json:"timestamp"`
}

// RenewalReminderMessage flags a customer whose subscription is due or in
// its grace window.
type RenewalReminderMessage struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Status     string    `json:"status"`
	EndDate    string    `json:"end_date"`
	Timestamp  time.Time `json:"timestamp"`
}

func (m *PaymentRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *RenewalReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentRecordedMessageFromJSON decodes a payment-recorded message body.
func PaymentRecordedMessageFromJSON(data []byte) (*PaymentRecordedMessage, error) {
	var msg PaymentRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RenewalReminderMessageFromJSON decodes a renewal-reminder message body.
func RenewalReminderMessageFromJSON(data []byte) (*RenewalReminderMessage, error) {
	var msg RenewalReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
