package usecases

import (
	"context"

	"github.com/guidepress-io/guidepress/internal/application/entitlement/dto"
	"github.com/guidepress-io/guidepress/internal/application/entitlement/services"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

type CheckTierQuery struct {
	UserID  uint
	MinTier string
}

// CheckTierUseCase answers "does this user hold at least tier X" by rank
// comparison. It never consumes quota and never mutates state beyond the
// lazy lifecycle transitions applied while resolving the tier.
type CheckTierUseCase struct {
	resolver *services.TierResolver
	catalog  *catalog.Catalog
	logger   logger.Interface
}

func NewCheckTierUseCase(
	resolver *services.TierResolver,
	cat *catalog.Catalog,
	log logger.Interface,
) *CheckTierUseCase {
	return &CheckTierUseCase{
		resolver: resolver,
		catalog:  cat,
		logger:   log,
	}
}

func (uc *CheckTierUseCase) Execute(ctx context.Context, query CheckTierQuery) (*dto.Decision, error) {
	if query.UserID == 0 {
		return nil, apperrors.NewValidationError("user ID is required")
	}
	minTier, err := catalog.ParseTier(query.MinTier)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid tier", err.Error())
	}

	membership, err := uc.resolver.Resolve(ctx, query.UserID, biztime.NowUTC())
	if err != nil {
		return nil, err
	}

	if uc.catalog.RankOf(membership.Tier) < uc.catalog.RankOf(minTier) {
		return dto.Denied(membership.Tier.String(), dto.ReasonTierTooLow, nil), nil
	}
	return dto.Allowed(membership.Tier.String(), nil), nil
}
