// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package email

import (
	"errors"
	"fmt"
	"io"

	mboxlib "github.com/emersion/go-mbox"
)

// SplitMbox reads an mbox stream and returns each message as raw bytes,
// in file order.
func SplitMbox(r io.Reader) ([][]byte, error) {
	reader := mboxlib.NewReader(r)

	var messages [][]byte
	for idx := 0; ; idx++ {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return messages, nil
			}
			return messages, fmt.Errorf("message %d: %w", idx, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return messages, fmt.Errorf("message %d read: %w", idx, err)
		}
		messages = append(messages, raw)
	}
}
