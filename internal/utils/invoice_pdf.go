package utils

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"vestia_back_end/internal/models"
)

// GenerateReceiptPDF imprime le reçu de commande en PDF via Chrome headless.
// Le HTML est le même que celui de l'e-mail de confirmation, chargé en
// data-URL pour éviter toute dépendance au front.
func GenerateReceiptPDF(order models.Order) ([]byte, error) {
	html := GenerateOrderConfirmationHTML(order)
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}

	return pdfBuf, nil
}
