package keeper

import (
	"context"

	"github.com/whitehat-labs/sombrero/x/bounty/types"
)

// GetConfig returns the module config.
func (k Keeper) GetConfig(ctx context.Context) (types.Config, error) {
	return k.LoadConfig(ctx)
}
