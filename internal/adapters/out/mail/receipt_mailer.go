// internal/adapters/out/mail/receipt_mailer.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	purchasedom "solstyle/internal/domain/purchase"
)

// ReceiptMailerSendGrid は購入レシートを SendGrid 経由で送る。
// usecase.ReceiptMailer の実装。送信失敗しても購入自体は成立済み。
type ReceiptMailerSendGrid struct {
	client *sendgrid.Client
	from   string
}

func NewReceiptMailerSendGrid(apiKey, from string) (*ReceiptMailerSendGrid, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("mail: sendgrid api key is empty")
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, errors.New("mail: from address is empty")
	}
	return &ReceiptMailerSendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
	}, nil
}

// SendReceipt sends a plain-text purchase receipt to the buyer.
func (m *ReceiptMailerSendGrid) SendReceipt(ctx context.Context, to string, p purchasedom.Purchase) error {
	if m == nil || m.client == nil {
		return errors.New("mail: client is nil")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("mail: to address is empty")
	}

	subject := fmt.Sprintf("Your purchase receipt (%s)", p.ID)
	body := fmt.Sprintf(
		"Thank you for your purchase.\n\n"+
			"Purchase ID : %s\n"+
			"Drop ID     : %s\n"+
			"Paid        : %d lamports\n"+
			"  to seller : %d lamports\n"+
			"  commission: %d lamports\n"+
			"NFT mint    : %s\n"+
			"Transaction : %s\n"+
			"Purchased at: %s\n",
		p.ID, p.DropID,
		p.PaymentLamports, p.SellerLamports, p.CommissionLamports,
		p.MintAddress, p.TxSignature,
		p.PurchasedAt.Format("2006-01-02 15:04:05 MST"),
	)

	msg := sgmail.NewSingleEmail(
		sgmail.NewEmail("SolStyle", m.from),
		subject,
		sgmail.NewEmail("", to),
		body,
		"", // HTML 無し（プレーンテキストのみ）
	)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("mail: send receipt: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail: sendgrid status=%d body=%s", resp.StatusCode, resp.Body)
	}

	log.Printf("[mail] receipt sent purchaseId=%s status=%d", p.ID, resp.StatusCode)
	return nil
}
