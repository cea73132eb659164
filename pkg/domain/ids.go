package domain

import (
	"strconv"
	"strings"
	"unicode"

	dErrors "evonft/pkg/domain-errors"
)

// MaxOwnerIDLength bounds identities accepted at trust boundaries.
const MaxOwnerIDLength = 128

// OwnerID is an opaque caller identity (an account address or principal).
// Identities are compared byte-for-byte.
type OwnerID string

// ParseOwnerID validates an identity taken from an untrusted source.
func ParseOwnerID(s string) (OwnerID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "owner id is required")
	}
	if len(s) > MaxOwnerIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "owner id is too long")
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r) || r > unicode.MaxASCII
	}) >= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "owner id must be printable ASCII without spaces")
	}
	return OwnerID(s), nil
}

func (o OwnerID) String() string {
	return string(o)
}

func (o OwnerID) IsNil() bool {
	return o == ""
}

// AssetID identifies an issued asset. Identifiers start at 1; zero is never issued.
type AssetID uint64

// ParseAssetID parses a decimal asset identifier.
func ParseAssetID(s string) (AssetID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "asset id must be a positive integer")
	}
	if n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "asset id must be a positive integer")
	}
	return AssetID(n), nil
}

func (a AssetID) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

func (a AssetID) IsNil() bool {
	return a == 0
}
