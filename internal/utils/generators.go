package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PickupCodePrefix is the fixed prefix of every pickup credential so
// scanners can reject foreign QR payloads cheaply.
const PickupCodePrefix = "ORDER-"

// GeneratePickupCode returns a globally unique, unguessable pickup
// credential in the QR-displayable form ORDER-<uuid>.
func GeneratePickupCode() string {
	return PickupCodePrefix + uuid.NewString()
}

// IsPickupCode reports whether s looks like a pickup credential.
func IsPickupCode(s string) bool {
	return strings.HasPrefix(s, PickupCodePrefix) && len(s) > len(PickupCodePrefix)
}

// GenerateShareToken returns a short random token for group-order links.
func GenerateShareToken() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("go-%s", uuid.NewString()[:16])
	}
	return "go-" + hex.EncodeToString(b)
}
