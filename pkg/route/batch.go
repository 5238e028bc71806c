package route

import "github.com/ha1tch/flowcanvas/pkg/diagram"

// Connection is one routed outgoing connection of an element.
type Connection struct {
	OwnerID  string
	Index    int // position in the owner's Connections
	TargetID string
	Label    string
	Route    Route
}

// RouteAll routes every connection from current element bounds. Connections
// whose target no longer exists are skipped.
func RouteAll(elements []*diagram.Element) []Connection {
	return routeSet(elements, nil)
}

// Reroute routes only the connections whose owner or target is in changed.
func Reroute(elements []*diagram.Element, changed []string) []Connection {
	set := make(map[string]bool, len(changed))
	for _, id := range changed {
		set[id] = true
	}
	return routeSet(elements, set)
}

func routeSet(elements []*diagram.Element, only map[string]bool) []Connection {
	byID := make(map[string]*diagram.Element, len(elements))
	for _, e := range elements {
		byID[e.ID] = e
	}
	var out []Connection
	for _, e := range elements {
		for i, c := range e.Connections {
			head, ok := byID[c.TargetID]
			if !ok {
				continue
			}
			if only != nil && !only[e.ID] && !only[head.ID] {
				continue
			}
			out = append(out, Connection{
				OwnerID:  e.ID,
				Index:    i,
				TargetID: head.ID,
				Label:    c.Label,
				Route:    Orthogonal(e.Bounds(), c.TailPort, head.Bounds(), c.HeadPort),
			})
		}
	}
	return out
}
