package types

import (
	"encoding/json"
	"time"
)

/*
Record is what a storage backend persists for one endpoint key.

LastUpdated is set only at the moment a fetch successfully completes.
It is never backdated, and a failed fetch never advances it. This is the
single fact the whole freshness model hangs on.

The JSON tags are part of the persisted layout: the file, bolt and sqlite
backends all store a record as this exact JSON object.
*/
type Record struct {
	Data        any       `json:"data"`
	LastUpdated time.Time `json:"lastUpdated"`
}

/*
Clone returns a deep, independent copy of the record.

Backends hand out clones so that a caller mutating a retrieved (or
submitted) value can never corrupt the stored one. The copy goes through
the same JSON codec the persistent backends already use, so anything a
backend can store, Clone can copy.
*/
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{
		Data:        CloneValue(r.Data),
		LastUpdated: r.LastUpdated,
	}
}

/*
CloneValue deep-copies an arbitrary JSON-serializable value.

Values that cannot round-trip through JSON are returned as-is; endpoint
data is required to be JSON-serializable anyway because three of the four
backends persist it as JSON text.
*/
func CloneValue(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
