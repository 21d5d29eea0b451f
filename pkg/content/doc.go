// Package content encodes and decodes resource representations.
//
// Devices answer with CBOR (application/vnd.ocf+cbor) or JSON. Decoded
// values are generic Go values with string map keys so they can be printed
// as JSON and edited by the user regardless of the device encoding.
package content
