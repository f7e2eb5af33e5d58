package ethereum

import (
	"strings"

	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/ports"

	"github.com/ethereum/go-ethereum/common"
)

// AddressNormalizer accepts 20-byte hex account addresses, with or without
// the 0x prefix, and returns their EIP-55 checksummed form.
type AddressNormalizer struct {
	// AllowZero admits the zero address, which no wallet can sign for.
	AllowZero bool
}

func (n AddressNormalizer) Normalize(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" || !common.IsHexAddress(value) {
		return "", domainerrors.ErrInvalidAddress
	}
	address := common.HexToAddress(value)
	if !n.AllowZero && address == (common.Address{}) {
		return "", domainerrors.ErrInvalidAddress
	}
	return address.Hex(), nil
}

// NormalizeAll normalizes every non-blank entry of raw.
func (n AddressNormalizer) NormalizeAll(raw []string) ([]string, error) {
	items := make([]string, 0, len(raw))
	for _, value := range raw {
		if strings.TrimSpace(value) == "" {
			continue
		}
		address, err := n.Normalize(value)
		if err != nil {
			return nil, err
		}
		items = append(items, address)
	}
	return items, nil
}

var _ ports.AddressNormalizer = AddressNormalizer{}
