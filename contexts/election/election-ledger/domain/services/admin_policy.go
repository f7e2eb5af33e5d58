package services

import (
	"strings"

	domainerrors "election/contexts/election/election-ledger/domain/errors"
)

type AdminMode string

const (
	// AdminModeOwner allows only the deployer address.
	AdminModeOwner AdminMode = "owner"
	// AdminModeAllowlist allows the deployer plus an explicit list.
	AdminModeAllowlist AdminMode = "allowlist"
	// AdminModeOpen does not restrict admin operations.
	AdminModeOpen AdminMode = "open"
)

// AdminPolicy decides who may run admin-only ledger operations. Addresses
// must already be normalized by the identity port.
type AdminPolicy struct {
	Mode     AdminMode
	Deployer string
	Admins   []string
}

func ParseAdminMode(raw string) (AdminMode, error) {
	switch AdminMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", AdminModeOwner:
		return AdminModeOwner, nil
	case AdminModeAllowlist:
		return AdminModeAllowlist, nil
	case AdminModeOpen:
		return AdminModeOpen, nil
	default:
		return "", domainerrors.ErrInvalidInput
	}
}

// Validate rejects policies that could never authorize anyone.
func (p AdminPolicy) Validate() error {
	switch p.Mode {
	case AdminModeOpen:
		return nil
	case AdminModeOwner:
		if strings.TrimSpace(p.Deployer) == "" {
			return domainerrors.ErrInvalidInput
		}
		return nil
	case AdminModeAllowlist:
		if strings.TrimSpace(p.Deployer) == "" && len(p.Admins) == 0 {
			return domainerrors.ErrInvalidInput
		}
		return nil
	default:
		return domainerrors.ErrInvalidInput
	}
}

// Authorize returns ErrUnauthorized unless caller may administer the ledger.
func (p AdminPolicy) Authorize(caller string) error {
	caller = strings.TrimSpace(caller)
	switch p.Mode {
	case AdminModeOpen:
		return nil
	case AdminModeOwner:
		if caller != "" && strings.EqualFold(caller, strings.TrimSpace(p.Deployer)) {
			return nil
		}
	case AdminModeAllowlist:
		if caller == "" {
			break
		}
		if strings.EqualFold(caller, strings.TrimSpace(p.Deployer)) {
			return nil
		}
		for _, admin := range p.Admins {
			if strings.EqualFold(caller, strings.TrimSpace(admin)) {
				return nil
			}
		}
	}
	return domainerrors.ErrUnauthorized
}
