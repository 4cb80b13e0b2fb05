package sms

import "log"

// Sender delivers SMS messages. LogSender stands in until a gateway account
// is provisioned.
type Sender interface {
	Send(phone, message string) error
}

type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(phone, message string) error {
	log.Printf("[SMS] To %s: %s", phone, message)
	return nil
}
