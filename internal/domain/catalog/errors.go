package catalog

import "errors"

// Domain errors for catalog snapshots

var (
	ErrNoSlots               = errors.New("catalog has no component slots")
	ErrEmptySlot             = errors.New("slot has no eligible recipes")
	ErrCorruptRecipe         = errors.New("recipe has negative cost or kilocalories")
	ErrInvalidClientContract = errors.New("client contract has invalid bounds")
	ErrClientNotFound        = errors.New("client not found in catalog")
)
