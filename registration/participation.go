package registration

import "github.com/Rhymond/go-money"

type ParticipationType string

const (
	INDIVIDUAL ParticipationType = "individual"
	TEAM       ParticipationType = "team"
)

// Fees are in paise.
var participationFees = map[ParticipationType]int64{
	INDIVIDUAL: 19900,
	TEAM:       49900,
}

func FeeFor(participationType ParticipationType) (*money.Money, error) {
	amount, ok := participationFees[participationType]
	if !ok {
		return nil, NewUnknownParticipationTypeError(participationType)
	}

	return money.New(amount, money.INR), nil
}
