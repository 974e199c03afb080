package pricing

import (
	"math"

	"github.com/sirupsen/logrus"
	"github.com/thena-travel/flightdesk/internal/domain"
)

// FareFloor is substituted when a base fare is missing or invalid so the
// workflow can still display a total. The substitution is logged at warning
// level and flagged on the result.
const FareFloor = 100

var multipliers = map[domain.CabinClass]float64{
	domain.CabinEconomy:        1,
	domain.CabinPremiumEconomy: 1.5,
	domain.CabinBusiness:       2.5,
	domain.CabinFirst:          4,
}

type Calculator struct {
	log *logrus.Logger
}

func NewCalculator(log *logrus.Logger) *Calculator {
	return &Calculator{log: log}
}

// Multiplier returns the fixed per-class fare multiplier. Unknown classes
// price as economy.
func (c *Calculator) Multiplier(cabin domain.CabinClass) float64 {
	if m, ok := multipliers[cabin]; ok {
		return m
	}
	return 1
}

// Total prices one leg: baseFare x class multiplier x passenger count.
// An unusable base fare is replaced by FareFloor and still runs through the
// multiplier and count; floored reports the substitution. The result is
// always finite and positive.
func (c *Calculator) Total(baseFare float64, cabin domain.CabinClass, passengerCount int) (total float64, floored bool) {
	if passengerCount < 1 {
		passengerCount = 1
	}
	if baseFare <= 0 || math.IsNaN(baseFare) || math.IsInf(baseFare, 0) {
		c.warn(baseFare, cabin)
		baseFare = FareFloor
		floored = true
	}
	return baseFare * c.Multiplier(cabin) * float64(passengerCount), floored
}

// TripTotal prices a whole itinerary: the outbound leg plus, for round
// trips, the return leg, never below FareFloor.
func (c *Calculator) TripTotal(outboundFare float64, returnFare *float64, cabin domain.CabinClass, passengerCount int) (total float64, floored bool) {
	total, floored = c.Total(outboundFare, cabin, passengerCount)
	if returnFare != nil {
		legTotal, legFloored := c.Total(*returnFare, cabin, passengerCount)
		total += legTotal
		floored = floored || legFloored
	}
	if total < FareFloor {
		total = FareFloor
		floored = true
	}
	return total, floored
}

func (c *Calculator) warn(baseFare float64, cabin domain.CabinClass) {
	if c.log == nil {
		return
	}
	c.log.WithFields(logrus.Fields{
		"base_fare":   baseFare,
		"cabin_class": cabin,
		"floor":       FareFloor,
	}).Warn("missing or invalid base fare, substituting fare floor")
}
