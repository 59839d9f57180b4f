/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
)

// writeShareCode prints a terminal QR code that opens the room in a browser.
func writeShareCode(w io.Writer, url string) error {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr generation failed: %w", err)
	}

	_, err = fmt.Fprintf(w, "%s\nShare this room: %s\n", q.ToString(false), url)

	return err
}
