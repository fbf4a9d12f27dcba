package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStationFor(t *testing.T) {
	cases := []struct {
		name string
		item Item
		want Station
	}{
		{"burger wins over customizations", Item{ProductName: "Double Burger", Customizations: Customizations{"extras": List("cheese")}}, StationGrill},
		{"customized goes to prep", Item{ProductName: "Salad", Customizations: Customizations{"dressing": Scalar("ranch")}}, StationPrep},
		{"customized fries go to prep", Item{ProductName: "Fries", Customizations: Customizations{"size": Scalar("large")}}, StationPrep},
		{"plain fries", Item{ProductName: "Curly FRIES"}, StationGarnish},
		{"everything else", Item{ProductName: "Soda"}, StationAssembly},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StationFor(tc.item))
		})
	}
}

func TestStationLoad_IncludesEmptyStations(t *testing.T) {
	load := StationLoad([]Order{
		{ID: 1, Items: []Item{{ProductName: "Burger"}, {ProductName: "Soda"}}},
		{ID: 2, Items: []Item{{ProductName: "Burger"}}},
	})

	assert.Len(t, load, len(Stations))
	assert.Len(t, load[StationGrill], 2)
	assert.Len(t, load[StationAssembly], 1)
	assert.Empty(t, load[StationGarnish])
	assert.Equal(t, int64(2), load[StationGrill][1].OrderID)
	assert.Equal(t, "8-10 min", StationGrill.Estimate())
}
