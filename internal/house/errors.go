package house

import "errors"

// Domain errors for the house package.
//
// Lookups that find nothing return nil rather than an error. Check the
// remaining kinds with errors.Is():
//
//	if errors.Is(err, house.ErrStorage) {
//	    // store failure, caller may retry
//	}
var (
	// ErrFloorNotRegistered is returned when a floor does not belong to the house.
	ErrFloorNotRegistered = errors.New("house: floor not registered")

	// ErrRoomNotRegistered is returned when a room does not belong to the house.
	ErrRoomNotRegistered = errors.New("house: room not registered")

	// ErrInvalidRoom is returned when room parameters are out of range.
	ErrInvalidRoom = errors.New("house: invalid room")

	// ErrInvalidDevice is returned when a device lacks an id, has no
	// capability, or lacks the capability an operation needs.
	ErrInvalidDevice = errors.New("house: invalid device")

	// ErrInvalidQuery is returned for malformed query parameters such as
	// dates and timestamps.
	ErrInvalidQuery = errors.New("house: invalid query")

	// ErrInvalidState is returned when an actuator state cannot be decoded.
	ErrInvalidState = errors.New("house: invalid actuator state")

	// ErrRoomNotStored is returned when a room-scoped query runs against a
	// room that has not been saved yet.
	ErrRoomNotStored = errors.New("house: room not stored")

	// ErrStorage wraps failures reported by the underlying store.
	ErrStorage = errors.New("house: storage failure")
)
