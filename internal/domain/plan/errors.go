package plan

import (
	"errors"

	"github.com/menuforge/v1/internal/domain/catalog"
)

// Domain errors for plan generation requests. All of them reject a
// request synchronously, before a job is created.

var (
	ErrInvalidDateRange = errors.New("date range is empty or inverted")
	ErrNoClients        = errors.New("request contains no clients")
	ErrUnknownClient    = errors.New("client is unknown to the catalog")
	ErrNoEligibleRecipe = errors.New("a slot has no eligible recipes")
	ErrNoMenuTypes      = errors.New("client has no menu types configured")
)

// IsInvalidRequest reports whether err belongs to the family of
// request-rejection errors that must surface as a synchronous 400 and
// never create a job.
func IsInvalidRequest(err error) bool {
	for _, target := range []error{
		ErrInvalidDateRange,
		ErrNoClients,
		ErrUnknownClient,
		ErrNoEligibleRecipe,
		ErrNoMenuTypes,
		catalog.ErrNoSlots,
		catalog.ErrEmptySlot,
		catalog.ErrCorruptRecipe,
		catalog.ErrInvalidClientContract,
		catalog.ErrClientNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
