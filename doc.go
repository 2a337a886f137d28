// Package firesnapshot provides typed access to Cloud Firestore documents.
//
// A Snapshot binds a decoded document value to the reference it lives at and,
// for data types that embed Timestamps, to the server-assigned create and
// update times captured when the document was loaded. A QueryBuilder composes
// Firestore queries from typed field accessors, so filters and orderings can
// only name fields declared on the document type.
//
// Nothing in this package talks to Firestore on its own. Fetching, writing and
// running queries is left to the caller's store (see Fetcher).
package firesnapshot
