package policy

import (
	"log"

	"github.com/BatmanBruc/bat-bot-merger/internal/config"
	"github.com/BatmanBruc/bat-bot-merger/types"
)

type Limits struct {
	Video int64
	Audio int64
}

func TierLimits(tier types.Tier) Limits {
	if tier == types.TierPremium {
		return Limits{Video: config.PremiumVideoLimit, Audio: config.PremiumAudioLimit}
	}
	return Limits{Video: config.NormalVideoLimit, Audio: config.NormalAudioLimit}
}

type Resolver struct {
	users types.UserStore
}

func NewResolver(users types.UserStore) *Resolver {
	return &Resolver{users: users}
}

// Resolve maps a user to a tier. Unknown users and lookup failures fall
// back to the normal tier.
func (r *Resolver) Resolve(userID int64) types.Tier {
	user, err := r.users.GetUser(userID)
	if err != nil {
		log.Printf("Tier lookup for user %d failed, assuming normal: %v", userID, err)
		return types.TierNormal
	}
	if user != nil && user.Premium {
		return types.TierPremium
	}
	return types.TierNormal
}
