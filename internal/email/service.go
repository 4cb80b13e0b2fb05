package email

import (
	"fmt"
	"net/smtp"
)

// Service sends transactional mail over SMTP.
type Service struct {
	host string
	port string
	from string
}

func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendOrderConfirmation sends the order confirmation email.
func (s *Service) SendOrderConfirmation(to, orderID string, total int, items []OrderItem) error {
	shortID := orderID
	if len(orderID) > 8 {
		shortID = orderID[len(orderID)-8:]
	}
	subject := fmt.Sprintf("Order Confirmation #%s - Thank you for your order", shortID)
	body := BuildOrderConfirmationBody(orderID, total, items)
	return s.send(to, subject, body)
}

// SendNotification sends a plain titled message, used for advisory
// notification fan-out.
func (s *Service) SendNotification(to, title, message string) error {
	body := BuildNotificationBody(title, message)
	return s.send(to, title, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
