package route

import (
	"math"

	"github.com/FACorreiaa/go-route-planner/internal/types"
)

const (
	publicTransportFare = 2.50
	carCostPerKm        = 0.10
	carParkingCost      = 3.0
	mixedWalkLimitKm    = 1.5
	mixedTransitLimitKm = 5.0
)

// SegmentCost is the price of travelling distanceKm with mode. The mode must
// already be normalized; anything unrecognized is priced as MIXED.
func SegmentCost(distanceKm float64, mode types.TransportationMode) float64 {
	switch mode {
	case types.TransportWalking, types.TransportBicycle:
		return 0
	case types.TransportPublicTransport:
		return publicTransportFare
	case types.TransportCar:
		return carCost(distanceKm)
	default:
		switch {
		case distanceKm < mixedWalkLimitKm:
			return 0
		case distanceKm < mixedTransitLimitKm:
			return publicTransportFare
		default:
			return math.Min(carCost(distanceKm), publicTransportFare)
		}
	}
}

func carCost(distanceKm float64) float64 {
	return carCostPerKm*distanceKm + carParkingCost
}
