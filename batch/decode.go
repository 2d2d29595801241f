package batch

import (
	"bytes"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeDeck returns the text of a deck file.
//
// Decks are written by TRNSYS Studio on Windows, so anything that is not valid UTF-8 is read as Windows-1252.
func DecodeDeck(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(bytes.TrimPrefix(raw, utf8BOM)), nil
	}
	text, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.Wrap(err, "decoding Windows-1252")
	}
	return string(text), nil
}

// ReadDeck reads and decodes the deck file at pathname.
func ReadDeck(pathname string) (string, error) {
	raw, err := os.ReadFile(pathname)
	if err != nil {
		return "", err
	}
	text, err := DecodeDeck(raw)
	return text, errors.Wrap(err, pathname)
}
