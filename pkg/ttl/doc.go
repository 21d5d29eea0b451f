// Package ttl converts command time-to-live inputs for hub commands.
//
// A time-to-live is entered as a value and a unit (ns, ms, s, m, h) or as
// infinite. The hub receives it as the timeToLive query parameter in
// nanoseconds, where 0 means the command never expires.
//
// # Minimum
//
// A finite time-to-live below 100 ms is rejected: the hub cannot deliver a
// command to a device and get an answer in less time.
//
// # Scheduled Commands
//
// When a device does not answer within the time-to-live the hub keeps the
// command pending. Tracker follows such commands per (device, correlation
// ID) and reports when they expire.
package ttl
