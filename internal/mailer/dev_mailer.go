package mailer

import (
	"fmt"

	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/logger"
)

// DevMailer logs emails to stdout instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationEmail(toEmail, toName, verifyURL string) error {
	logger.Info("DEV MODE: Verification email",
		"to", toEmail,
		"name", toName,
		"verify_url", verifyURL,
	)

	fmt.Println("\n╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║                📧 DEV MODE - VERIFICATION EMAIL              ║")
	fmt.Println("╠════════════════════════════════════════════════════════════╣")
	fmt.Printf("║ To: %s\n", toEmail)
	fmt.Printf("║ Name: %s\n", toName)
	fmt.Println("║")
	fmt.Println("║ Verification Link:")
	fmt.Printf("║ %s\n", verifyURL)
	fmt.Println("╚════════════════════════════════════════════════════════════╝")

	return nil
}

func (d *DevMailer) SendPasswordResetEmail(toEmail, toName, resetURL string) error {
	logger.Info("DEV MODE: Password reset email",
		"to", toEmail,
		"name", toName,
		"reset_url", resetURL,
	)

	fmt.Println("\n╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║               📧 DEV MODE - PASSWORD RESET EMAIL             ║")
	fmt.Println("╠════════════════════════════════════════════════════════════╣")
	fmt.Printf("║ To: %s\n", toEmail)
	fmt.Printf("║ Name: %s\n", toName)
	fmt.Println("║")
	fmt.Println("║ Reset Link:")
	fmt.Printf("║ %s\n", resetURL)
	fmt.Println("╚════════════════════════════════════════════════════════════╝")

	return nil
}
