package utils

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"vestia_back_end/internal/models"
)

func SendConfirmationEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	if err := msg.From("noreply@vestia.com.br"); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("recibo_vestia.pdf", bytes.NewReader(pdfAttachment))
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		variant := ""
		if item.Variant != nil {
			variant = fmt.Sprintf(" (%s / %s)", item.Variant.Size, item.Variant.Color.Name)
		}
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s%s</td>
				<td>%d</td>
				<td>R$ %.2f</td>
				<td>R$ %.2f</td>
			</tr>`, item.Name, variant, item.Quantity, item.Price, item.Subtotal)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="pt-BR">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Pedido confirmado</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Pedido %s confirmado</h2>
		<p>Olá,</p>
		<p>Recebemos o pagamento do seu pedido. Ele já está sendo preparado.</p>

		<h3>Itens do pedido</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produto</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Qtd</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Preço</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">R$ %.2f</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Atenciosamente,<br>
			<strong>Equipe Vestia</strong>
		</p>
	</div>
</body>
</html>`, order.OrderNumber, itemsHTML, order.Pricing.Total)
}
