package mail

import (
	"fmt"
	"time"

	"otp_gateway/config"
)

// SendCode delivers a verification code over email, the fallback channel for
// recipients without SMS coverage.
func SendCode(cfg *config.AppConfig, to, code string, expiry time.Duration, dialer MailDialer) error {
	subject := "Your verification code"
	body := fmt.Sprintf(
		"<p>Your verification code is <strong>%s</strong>.</p>"+
			"<p>It expires in %d minutes. Do not share it with anyone.</p>",
		code, int(expiry.Minutes()))

	return sendMail(cfg, to, subject, body, dialer)
}
