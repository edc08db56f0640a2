package converter

import (
	"xbit_backend/internal/api/dto/table"
	"xbit_backend/internal/model"
)

func ToTableResponse(t model.ProbabilityTable) table.TableResponse {
	tiers := make([]table.Tier, len(t.Tiers))
	for i, tier := range t.Tiers {
		tiers[i] = table.Tier{
			Basis:       tier.Basis.String(),
			Expectation: tier.Expectation,
			Reward:      tier.Reward,
		}
	}
	return table.TableResponse{
		ID:          t.ID,
		Name:        t.Name,
		OutputAsset: t.OutputAsset,
		Tag:         t.Tag,
		Tiers:       tiers,
	}
}

func ToStatsResponse(stats model.TableStats) table.StatsResponse {
	return table.StatsResponse{
		TableID:     stats.TableID,
		WinRate:     stats.WinRate,
		Jackpot:     stats.Jackpot,
		PayoutRatio: stats.PayoutRatio,
	}
}
