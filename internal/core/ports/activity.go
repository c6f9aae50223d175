package ports

import "time"

// Activity receives the start and end of traced engine work (fetches, mutations, refreshes),
// so live views can show what is syncing.
//
//go:generate mockgen -source=activity.go -destination=mocks/mock_activity.go -package=mocks
type Activity interface {
	// OnSyncStart is called when a unit of work starts. parentID is empty for root work.
	OnSyncStart(id, parentID, name string, start time.Time)
	// OnSyncComplete is called when the unit of work with id ends. err is nil on success.
	OnSyncComplete(id string, end time.Time, err error)
}
