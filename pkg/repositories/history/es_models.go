package history

import (
	"time"
)

// ESRound represents a round document in Elasticsearch
type ESRound struct {
	RoundID      string    `json:"round_id"`
	PlayerID     string    `json:"player_id"`
	Bet          int64     `json:"bet"`
	Result       string    `json:"result"`
	DealerScore  int       `json:"dealer_score"`
	InsuranceBet int64     `json:"insurance_bet,omitempty"`
	FundsAfter   int64     `json:"funds_after"`
	CompletedAt  time.Time `json:"completed_at"`
	Hands        []ESHand  `json:"hands"`
}

// ESHand represents a single player hand in Elasticsearch
type ESHand struct {
	HandID      string `json:"hand_id"`
	Bet         int64  `json:"bet"`
	Score       int    `json:"score"`
	Result      string `json:"result"`
	Blackjack   bool   `json:"blackjack"`
	Busted      bool   `json:"busted"`
	HasSplit    bool   `json:"has_split"`
	DoubledDown bool   `json:"doubled_down"`
}

func toESRound(record *RoundRecord) *ESRound {
	doc := &ESRound{
		RoundID:      record.ID,
		PlayerID:     record.PlayerID,
		Bet:          record.Bet,
		Result:       record.Result.String(),
		DealerScore:  record.DealerScore,
		InsuranceBet: record.InsuranceBet,
		FundsAfter:   record.FundsAfter,
		CompletedAt:  record.CompletedAt,
	}
	for _, hand := range record.Hands {
		doc.Hands = append(doc.Hands, ESHand{
			HandID:      hand.ID,
			Bet:         hand.Bet,
			Score:       hand.Score,
			Result:      hand.Result.String(),
			Blackjack:   hand.IsBlackjack,
			Busted:      hand.IsBust,
			HasSplit:    hand.IsSplit,
			DoubledDown: hand.DoubledDown,
		})
	}
	return doc
}
