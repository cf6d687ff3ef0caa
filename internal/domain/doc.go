// Package domain models weather alerts, saved locations, and the correlation
// between them.
//
// # Alert Areas
//
// Every alert covers a circle: a center coordinate plus a radius in
// kilometers. A location is affected when its great-circle distance to the
// center, computed with the haversine formula on a 6371 km sphere, is less
// than or equal to the radius. The boundary is inclusive; a zero radius only
// matches the exact center.
//
// Wire format of an area, shared with the dashboard client:
//
//	{"lat": 41.96, "lng": -87.68, "radius": 40, "location": "Chicago, IL",
//	 "counties": ["Cook County", "DuPage County"]}
//
// # Severity and Risk
//
// Severity is a closed, ordered scale:
//
//	extreme(4) > severe(3) > moderate(2) > minor(1)
//
// Labels outside the scale are rejected when decoded; such records never
// reach classification. The dominant alert for a location is the first alert,
// in input order, with the highest rank among those containing it. Its
// severity maps onto the user-facing tier:
//
//	extreme, severe -> high
//	moderate        -> medium
//	minor           -> low
//
// No affecting alert means low. Risk is never carried over from an earlier
// alert set.
//
// # Reconciliation
//
// [Reconcile] recomputes every location with a position and commits only the
// deltas. LastUpdated changes only when the tier or the dominant alert text
// changes, which keeps repeated passes over the same alert set idempotent.
// Locations without a position are reported as unclassified and left as is.
package domain
