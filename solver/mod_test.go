package solver

import (
	"os"
	"testing"

	"carrental/mdp"

	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func defaultParams() mdp.Params {
	return mdp.Params{
		MaxCars:      20,
		MaxMove:      5,
		RentalRates:  [2]float64{3, 4},
		ReturnRates:  [2]float64{3, 2},
		Truncation:   11,
		RentalCredit: 10,
		MoveCost:     2,
		Discount:     0.9,
	}
}

func smallParams() mdp.Params {
	return mdp.Params{
		MaxCars:      6,
		MaxMove:      2,
		RentalRates:  [2]float64{2, 3},
		ReturnRates:  [2]float64{2, 1},
		Truncation:   8,
		RentalCredit: 10,
		MoveCost:     2,
		Discount:     0.9,
	}
}
