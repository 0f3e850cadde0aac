// Package house holds the smart house object model and its SQLite repository.
//
// A House owns Floors, each Floor owns Rooms, and each Room owns Devices.
// A Device carries an optional SensorRole, an optional ActuatorRole, or
// both. The graph is built in memory through RegisterFloor, RegisterRoom
// and RegisterDevice, persisted with SaveHouse, and rebuilt with LoadHouse.
//
// Readings and actuator states live only in the store. The repository
// answers two aggregate queries over readings:
//
//   - CalcAvgTemperaturesInRoom: mean °C reading per calendar date
//   - CalcHoursWithHumidityAbove: hours of a date where more than three
//     readings exceed their device's average humidity
//
// Timestamps are naive local wall clock times stored as
// "2006-01-02 15:04:05" and are never converted to UTC.
package house
