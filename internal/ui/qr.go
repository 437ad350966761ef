package ui

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// RenderQR prints a terminal QR code for the given link so a second player
// on a phone can join without typing the room code.
func RenderQR(link string) error {
	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("generate qr code: %w", err)
	}
	fmt.Println(qr.ToSmallString(false))
	return nil
}
