package qr

import (
	"bytes"
	"testing"

	"campusbites/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

func TestRenderProducesPNG(t *testing.T) {
	code := utils.GeneratePickupCode()

	png, err := Render(code)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic), "output should be a PNG")
	assert.Greater(t, len(png), 100)
}

func TestRenderRejectsForeignPayloads(t *testing.T) {
	_, err := Render("https://evil.example")
	assert.Error(t, err)

	_, err = Render("")
	assert.Error(t, err)
}
