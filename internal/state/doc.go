// Package state holds the bridge's live runtime snapshot: the latest
// sensed brightness and presence, the last inbound temperature reading,
// and the commanded lamp state.
//
// The store is a plain mutex-guarded value. Snapshot returns a copy, so
// callers can serialise or inspect it without coordinating with the
// sensing loop. Writers allocate fresh values for the optional fields on
// every update, so the pointed-to values inside a returned Snapshot are
// never mutated afterwards.
package state
