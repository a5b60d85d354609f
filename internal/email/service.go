package email

import (
	"fmt"
	"mime"
	"net/smtp"
)

// sendFunc has the signature of smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host     string
	port     string
	from     string
	auth     smtp.Auth
	sendMail sendFunc
}

// NewService creates a new email service. Credentials are optional; with an
// empty username the relay is used unauthenticated.
func NewService(host, port, from, username, password string) *Service {
	s := &Service{
		host:     host,
		port:     port,
		from:     from,
		sendMail: smtp.SendMail,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

// SendSaleReceipt mails the receipt of a committed sale to the client.
func (s *Service) SendSaleReceipt(to string, receipt Receipt) error {
	subject := fmt.Sprintf("Receipt for your purchase (sale #%d)", receipt.SaleID)
	body := BuildSaleReceiptBody(receipt)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, mime.QEncoding.Encode("UTF-8", subject), body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.sendMail(addr, s.auth, s.from, []string{to}, []byte(msg))
}
