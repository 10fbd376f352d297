package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendReportReady(toEmail, title, jobId, cid string) error
	SendJobFailed(toEmail, title, jobId, reason string) error
}

type emailService struct {
	dialer     *gomail.Dialer
	email      string
	senderName string
	clientURL  string
}

func NewEmailService(host string, port int, email, password, senderName, clientURL string) IEmailService {
	d := gomail.NewDialer(host, port, email, password)

	return &emailService{
		dialer:     d,
		email:      email,
		senderName: senderName,
		clientURL:  clientURL,
	}
}

func (s *emailService) SendReportReady(toEmail, title, jobId, cid string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.email, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your research report is ready")

	link := fmt.Sprintf("%s/history/%s", s.clientURL, cid)
	if cid == "" {
		link = fmt.Sprintf("%s/jobs/%s", s.clientURL, jobId)
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Report ready</h2>
			<p>The research run <strong>%s</strong> has finished.</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open the report</a>
			<p>Or copy this link:</p>
			<p>%s</p>
		</div>
	`, title, link, link)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send report notice to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Report notice sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendJobFailed(toEmail, title, jobId, reason string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.email, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your research run failed")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Run failed</h2>
			<p>The research run <strong>%s</strong> (job %s) stopped with an error:</p>
			<p style="color: #B00020;">%s</p>
			<p>Partial results, if any, remain available until the job is evicted.</p>
		</div>
	`, title, jobId, reason)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send failure notice to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Failure notice sent to %s\n", toEmail)
	return nil
}
