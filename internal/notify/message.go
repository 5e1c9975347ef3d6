// Package notify delivers one-time codes to users by mail, directly or
// through a RabbitMQ queue.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// OTPMessage is the payload carried on the mail queue.
type OTPMessage struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Code  string `json:"code"`
}

const otpSubject = "Your verification code"

var otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>Hi {{.Name}},</h2>
  <p>Use the code below to verify your email address:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>The code expires in {{.TTL}}. If you did not request it, you can ignore this email.</p>
</div>`))

// renderOTP builds the HTML body of a code email.
func renderOTP(msg OTPMessage, ttl string) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Name string
		Code string
		TTL  string
	}{msg.Name, msg.Code, ttl})
	if err != nil {
		return "", fmt.Errorf("render otp email: %w", err)
	}
	return buf.String(), nil
}
