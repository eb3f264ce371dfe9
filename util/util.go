package util

import (
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	dvoteutil "go.vocdoni.io/dvote/util"
)

func HexPrefixed(s string) string {
	if !strings.HasPrefix(s, "0x") {
		return fmt.Sprintf("0x%s", s)
	}
	return s
}

// NormalizeAddress returns the EIP-55 checksummed form of an ethereum address.
// Anything that is not a valid hex address is returned as an empty string.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if !ethcommon.IsHexAddress(address) {
		return ""
	}
	return ethcommon.HexToAddress(address).Hex()
}

func GenerateBearerToken() string {
	return dvoteutil.RandomHex(32)
}
