// Package model defines the records the hub console displays and edits.
//
// # Device Hierarchy
//
// The hub exposes devices, and each device publishes a flat list of
// resource links. A link is addressed by its href, a slash separated path
// such as "/light/1" or "/oic/d":
//
//	Device (3f0c...)
//	├── /oic/d          [oic.wk.d]
//	├── /oic/p          [oic.wk.p]
//	└── /light/1        [core.light]
//
// The flat list is turned into a display tree by package restree.
//
// # Administration Records
//
// Besides devices and resources the console manages:
//   - Token: API tokens issued by the hub's token server
//   - SigningRecord: certificates signed by the hub certificate authority
//   - EnrollmentGroup, LinkedHub, ProvisioningRecord: device provisioning
//   - RemoteClient: locally registered client application instances
//
// # Wire Format
//
// All records decode from the hub HTTP gateway JSON. The gateway encodes
// 64-bit integers as strings; NanoTime and UnixTime accept both forms.
package model
