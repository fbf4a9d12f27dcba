package orders

import "strings"

// Station is a kitchen work area an item is routed to.
type Station string

const (
	StationGrill    Station = "grill"
	StationPrep     Station = "prep"
	StationAssembly Station = "assembly"
	StationGarnish  Station = "garnish"
)

// Stations lists stations in board order.
var Stations = []Station{StationGrill, StationPrep, StationAssembly, StationGarnish}

// Label is the station's display name.
func (s Station) Label() string {
	switch s {
	case StationGrill:
		return "Grill"
	case StationPrep:
		return "Prep"
	case StationAssembly:
		return "Assembly"
	case StationGarnish:
		return "Garnish"
	}
	return string(s)
}

// Estimate is the typical handling time at the station.
func (s Station) Estimate() string {
	switch s {
	case StationGrill:
		return "8-10 min"
	case StationPrep:
		return "3-5 min"
	case StationGarnish:
		return "2-4 min"
	default:
		return "2-3 min"
	}
}

// StationFor routes an item. Burgers go to the grill, anything customized to
// prep, fries to garnish and everything else to assembly.
func StationFor(item Item) Station {
	name := strings.ToLower(item.ProductName)
	switch {
	case strings.Contains(name, "burger"):
		return StationGrill
	case len(item.Customizations) > 0:
		return StationPrep
	case strings.Contains(name, "fries"):
		return StationGarnish
	default:
		return StationAssembly
	}
}

// StationTicket is one item placed on a station.
type StationTicket struct {
	OrderID int64
	Item    Item
}

// StationLoad groups the items of the given orders by station. Every station
// is present in the result, possibly with no tickets.
func StationLoad(list []Order) map[Station][]StationTicket {
	load := make(map[Station][]StationTicket, len(Stations))
	for _, st := range Stations {
		load[st] = nil
	}
	for _, order := range list {
		for _, item := range order.Items {
			st := StationFor(item)
			load[st] = append(load[st], StationTicket{OrderID: order.ID, Item: item})
		}
	}
	return load
}
