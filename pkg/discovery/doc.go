// Package discovery finds remote client instances on the local network.
//
// A remote client instance is a client application that proxies a local
// device network for the console. Instances advertise themselves with
// mDNS/DNS-SD:
//
//	service:  _hubclient._tcp.local.
//	instance: user-friendly name, truncated to 63 bytes
//	TXT:      id=<instance id> name=<display name> ver=<version> auth=psk|x509
//
// An instance reachable on several interfaces is reported once, with the
// addresses of all interfaces. It is reported as removed when its last
// address disappears.
package discovery
