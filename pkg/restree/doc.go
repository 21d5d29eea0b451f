// Package restree builds the nested resource tree a device inspector shows
// from the flat resource links a device publishes.
//
// Links are keyed by the slash-joined prefix of their href segments with a
// trailing slash, so "/oic/d" is inserted below the directory node "/oic/":
//
//	/light/        (directory)
//	  /light/1     oic.r.switch.binary
//	  /light/2     oic.r.light.brightness
//	/oic/
//	  /oic/d       oic.wk.d
//	  /oic/p       oic.wk.p
//
// A link whose href is also the prefix of other hrefs becomes a node that
// carries both its own fields and sub rows. Links that normalize to the same
// key, such as "/a" and "/a/", are merged with the later link winning on
// field collisions.
//
// Every level is sorted case-insensitively by href. Building is pure: the
// tree is rebuilt from the links on every call and the input is never
// modified.
package restree
