package types

import "time"

/*
EndpointState is the observable condition of one endpoint.

The four states of an endpoint map onto this struct:

	idle-empty      Data == nil, IsLoading == false
	idle-with-data  Data != nil, IsLoading == false
	loading         IsLoading == true
	error           IsError == true, Err != nil

A zero LastUpdated means "never fetched successfully".

Only the core mutates EndpointState. Subscribers always receive an
independent snapshot, so nothing a subscriber does to the value it was
handed can leak into the registry or into another subscriber.
*/
type EndpointState struct {
	Data        any
	IsLoading   bool
	IsError     bool
	Err         error
	LastUpdated time.Time
}

// HasData reports whether the endpoint currently holds a value.
func (s EndpointState) HasData() bool {
	return s.Data != nil
}

/*
Snapshot returns a copy of the state whose Data is deeply independent of
the original. This is the value-copy step at the notification boundary:
every delivery to every subscriber goes through it.
*/
func (s EndpointState) Snapshot() EndpointState {
	s.Data = CloneValue(s.Data)
	return s
}

/*
Listener receives state snapshots for one endpoint.

Listeners are called from a per-endpoint dispatch goroutine, one at a
time, in the order the underlying transitions occurred. They should
return quickly; a slow listener delays later notifications for its
endpoint (but never for other endpoints).
*/
type Listener func(EndpointState)
