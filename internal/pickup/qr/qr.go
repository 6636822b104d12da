package qr

import (
	"fmt"

	"campusbites/internal/utils"

	"github.com/skip2/go-qrcode"
)

// Render encodes a pickup credential as a 256px PNG. The payload is the
// plain credential string; verification happens server-side on scan, so
// nothing in the image needs to be secret.
func Render(code string) ([]byte, error) {
	if !utils.IsPickupCode(code) {
		return nil, fmt.Errorf("refusing to render non-pickup payload %q", code)
	}
	return qrcode.Encode(code, qrcode.Medium, 256)
}
