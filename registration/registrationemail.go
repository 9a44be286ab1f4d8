package registration

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/International-Combat-Archery-Alliance/email"
)

//go:embed templates
var templates embed.FS

const hackathonName = "CodeBreakz"

func SendPaymentConfirmationEmail(ctx context.Context, emailSender email.Sender, fromAddress string, reg Registration) error {
	data := confirmationData(reg)

	htmlBody, err := makeHtmlBody(data)
	if err != nil {
		return err
	}

	textOnlyBody, err := makeTextOnlyBody(data)
	if err != nil {
		return err
	}

	return emailSender.SendEmail(ctx, email.Email{
		FromAddress: fromAddress,
		ToAddresses: []string{reg.Email},
		Subject:     fmt.Sprintf("%s registration confirmed - %s", hackathonName, reg.RegistrationID),
		HTMLBody:    htmlBody,
		TextBody:    textOnlyBody,
	})
}

func confirmationData(reg Registration) map[string]any {
	amount := ""
	if reg.PaymentAmount != nil {
		amount = reg.PaymentAmount.Display()
	}

	return map[string]any{
		"Hackathon":    hackathonName,
		"Registration": reg,
		"Amount":       amount,
	}
}

func makeHtmlBody(data map[string]any) (string, error) {
	tmpl, err := htmltemplate.ParseFS(templates, "templates/payment-confirmation.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}

func makeTextOnlyBody(data map[string]any) (string, error) {
	tmpl, err := texttemplate.ParseFS(templates, "templates/payment-confirmation-textonly.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}
