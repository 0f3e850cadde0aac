package house

import (
	"fmt"
	"math"
	"sort"
)

// House is the root of the object graph.
// It is not safe for concurrent mutation.
type House struct {
	floors []*Floor
}

// NewHouse returns an empty house.
func NewHouse() *House {
	return &House{}
}

// Floor is a level of the house. Rooms keep registration order.
type Floor struct {
	Level int

	house *House
	rooms []*Room
}

// Rooms returns the rooms on the floor in registration order.
func (f *Floor) Rooms() []*Room {
	return append([]*Room(nil), f.rooms...)
}

// Room is a sized, optionally named space on a floor.
type Room struct {
	// ID is the store key, zero until the room has been saved.
	ID   int64
	Size float64
	Name string

	floor   *Floor
	devices []*Device
}

// Floor returns the floor that owns the room.
func (r *Room) Floor() *Floor { return r.floor }

// Devices returns the devices registered in the room.
func (r *Room) Devices() []*Device {
	return append([]*Device(nil), r.devices...)
}

func (r *Room) detach(d *Device) {
	for i, existing := range r.devices {
		if existing == d {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			return
		}
	}
}

// RegisterFloor returns the floor at level, creating it when needed.
func (h *House) RegisterFloor(level int) *Floor {
	if f := h.FloorByLevel(level); f != nil {
		return f
	}
	f := &Floor{Level: level, house: h}
	h.floors = append(h.floors, f)
	return f
}

// RegisterRoom appends a new room to floor. Rooms are never deduplicated
// by name.
func (h *House) RegisterRoom(floor *Floor, size float64, name string) (*Room, error) {
	if floor == nil {
		return nil, fmt.Errorf("%w: nil floor", ErrInvalidRoom)
	}
	if floor.house != h {
		return nil, fmt.Errorf("%w: level %d", ErrFloorNotRegistered, floor.Level)
	}
	if size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("%w: size %v", ErrInvalidRoom, size)
	}

	r := &Room{Size: size, Name: name, floor: floor}
	floor.rooms = append(floor.rooms, r)
	return r, nil
}

// RegisterDevice places d in room, removing it from any previous room.
// Registering the same device in the same room again is a no-op.
func (h *House) RegisterDevice(room *Room, d *Device) error {
	if room == nil || room.floor == nil || room.floor.house != h {
		return ErrRoomNotRegistered
	}
	if err := d.validate(); err != nil {
		return err
	}
	if existing := h.DeviceByID(d.ID); existing != nil && existing != d {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidDevice, d.ID)
	}

	if d.room == room {
		return nil
	}
	if d.room != nil {
		d.room.detach(d)
	}
	room.devices = append(room.devices, d)
	d.room = room
	return nil
}

// Floors returns the floors ordered by level.
func (h *House) Floors() []*Floor {
	floors := append([]*Floor(nil), h.floors...)
	sort.SliceStable(floors, func(i, j int) bool {
		return floors[i].Level < floors[j].Level
	})
	return floors
}

// FloorByLevel returns the floor at level, or nil.
func (h *House) FloorByLevel(level int) *Floor {
	for _, f := range h.floors {
		if f.Level == level {
			return f
		}
	}
	return nil
}

// Rooms returns every room, floor by floor from the lowest level.
func (h *House) Rooms() []*Room {
	var rooms []*Room
	for _, f := range h.Floors() {
		rooms = append(rooms, f.rooms...)
	}
	return rooms
}

// RoomByName returns the first room named name, or nil.
func (h *House) RoomByName(name string) *Room {
	for _, r := range h.Rooms() {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// RoomByID returns the stored room with the given id, or nil.
func (h *House) RoomByID(id int64) *Room {
	if id == 0 {
		return nil
	}
	for _, r := range h.Rooms() {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Devices returns every registered device.
func (h *House) Devices() []*Device {
	var devices []*Device
	for _, r := range h.Rooms() {
		devices = append(devices, r.devices...)
	}
	return devices
}

// Sensors returns the devices with the sensor role.
func (h *House) Sensors() []*Device {
	var out []*Device
	for _, d := range h.Devices() {
		if d.IsSensor() {
			out = append(out, d)
		}
	}
	return out
}

// Actuators returns the devices with the actuator role.
func (h *House) Actuators() []*Device {
	var out []*Device
	for _, d := range h.Devices() {
		if d.IsActuator() {
			out = append(out, d)
		}
	}
	return out
}

// DeviceByID returns the device with id, or nil.
func (h *House) DeviceByID(id string) *Device {
	for _, f := range h.floors {
		for _, r := range f.rooms {
			for _, d := range r.devices {
				if d.ID == id {
					return d
				}
			}
		}
	}
	return nil
}

// Area returns the sum of all room sizes.
func (h *House) Area() float64 {
	var total float64
	for _, f := range h.floors {
		for _, r := range f.rooms {
			total += r.Size
		}
	}
	return total
}
