package sms

// Gateway defines the interface for sending SMS messages
type Gateway interface {
	// Send delivers a message to a single phone number.
	Send(phone, message string) error

	// GetName returns the name of the SMS gateway implementation
	GetName() string
}
