package gateway

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// EncodePixQR génère localement le QR code PNG (base64) depuis le payload
// copia-e-cola quand Asaas ne renvoie pas d'image encodée.
func EncodePixQR(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
