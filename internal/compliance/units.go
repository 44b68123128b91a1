package compliance

import "adherence-tracker/internal/regimen"

// Unit is one logical task derived from a regimen's items: all items sharing
// (name, scheduled time) are alternative options of the same unit, and
// completing any one of them satisfies it.
type Unit struct {
	Key           string
	Name          string
	ScheduledTime string
	Items         []regimen.Item
	// ActiveFrom is the earliest active-from day across the unit's options;
	// the unit counts toward compliance from that day on.
	ActiveFrom string
}

// unitKey builds the stable identifier for a (name, scheduledTime) pair.
// Daily items (supplements) carry no scheduled time and key on the name alone.
func unitKey(name, scheduledTime string) string {
	if scheduledTime == "" {
		return name
	}
	return name + "@" + scheduledTime
}

// groupUnits partitions a regimen's items into units, preserving the order in
// which units first appear in the item list.
func groupUnits(items []regimen.Item) []Unit {
	var units []Unit
	index := make(map[string]int, len(items))

	for _, it := range items {
		key := unitKey(it.Name, it.ScheduledTime)
		i, ok := index[key]
		if !ok {
			index[key] = len(units)
			units = append(units, Unit{
				Key:           key,
				Name:          it.Name,
				ScheduledTime: it.ScheduledTime,
				Items:         []regimen.Item{it},
				ActiveFrom:    it.ActiveFrom,
			})
			continue
		}
		units[i].Items = append(units[i].Items, it)
		if it.ActiveFrom < units[i].ActiveFrom {
			units[i].ActiveFrom = it.ActiveFrom
		}
	}
	return units
}

// activeOn reports whether the unit counts on the given day.
func (u Unit) activeOn(key string) bool {
	return key >= u.ActiveFrom
}

// introducedOn reports whether the given day is the unit's introduction day.
func (u Unit) introducedOn(key string) bool {
	return key == u.ActiveFrom
}

// contains reports whether the item belongs to this unit.
func (u Unit) contains(itemID string) bool {
	for _, it := range u.Items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

// splitForDay separates the units counting on a day from those introduced on
// it. Introduced units are excluded from the day's denominator so a coach can
// extend a live regimen without marking the new unit missed on day one.
func splitForDay(units []Unit, key string) (active, introduced []Unit) {
	for _, u := range units {
		if !u.activeOn(key) {
			continue
		}
		active = append(active, u)
		if u.introducedOn(key) {
			introduced = append(introduced, u)
		}
	}
	return active, introduced
}
