package service

import (
	"fmt"
	"time"
)

func otpEmail(to, code string, ttl time.Duration) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: "Your OTP Code",
		Text:    fmt.Sprintf("Your verification code is: %s. It will expire in %s.", code, humanDuration(ttl)),
	}
}

func welcomeEmail(to, appName, appURL string) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Welcome to %s!", appName),
		Text: fmt.Sprintf(`Hi,

Your email is verified and your account is active!

Set up your profile so teammates can find you: %s/profile/setup

Best,
The %s Team`, appURL, appName),
	}
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
