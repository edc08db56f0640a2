package converter

import (
	"fmt"
	"strings"

	"xbit_backend/internal/api/dto/play"
	"xbit_backend/internal/model"
	"xbit_backend/internal/service/pacer"

	"github.com/shopspring/decimal"
)

func ToPlayIntent(req play.SubmitRequest, session model.Session) (model.PlayIntent, error) {
	stake, err := decimal.NewFromString(req.Stake)
	if err != nil {
		return model.PlayIntent{}, fmt.Errorf("%w: stake %q", model.ErrInvalidIntent, req.Stake)
	}
	return model.PlayIntent{
		Owner:           session.Wallet,
		SessionID:       session.ID,
		ChainID:         req.ChainID,
		TableID:         req.TableID,
		Stake:           stake,
		Repeats:         req.Repeats,
		Currency:        strings.ToUpper(req.Currency),
		DonationCauseID: req.DonationCauseID,
	}, nil
}

func ToPlayResponse(rec model.PlayRecord, phase pacer.Phase) play.PlayResponse {
	out := play.PlayResponse{
		ID:              rec.ID.String(),
		Key:             rec.Key(),
		PlayID:          rec.PlayID,
		RequestID:       rec.RequestID,
		Stage:           rec.Stage.String(),
		Phase:           phase.String(),
		StartTime:       rec.StartTime,
		StartBlock:      rec.StartBlock,
		TransactionHash: rec.TransactionHash,
		ChainID:         rec.ChainID,
		TableID:         rec.TableID,
		Stake:           rec.Stake.String(),
		Repeats:         rec.Repeats,
		Currency:        rec.Currency,
		DonationCauseID: rec.DonationCauseID,
		Randomness:      rec.Randomness,
		Rewards:         toRewards(rec.Rewards),
		Resumed:         rec.Resumed,
	}
	if rec.Failure != nil {
		out.Failure = &play.Failure{
			Kind:    string(rec.Failure.Kind),
			Message: rec.Failure.Message,
		}
	}
	return out
}

func toRewards(rewards []model.Reward) []play.Reward {
	result := make([]play.Reward, len(rewards))
	for i, r := range rewards {
		result[i] = play.Reward{
			Level:      r.Level,
			Unit:       string(r.Unit),
			Value:      r.Value.String(),
			Multiplier: r.Multiplier,
		}
	}
	return result
}

func ToEventResponse(ev model.PlayEvent, phase pacer.Phase) play.EventResponse {
	return play.EventResponse{
		Type: string(ev.Type),
		Play: ToPlayResponse(ev.Record, phase),
	}
}
