// Package snapshot stores rendered HTML snapshots of view trees.
//
// A snapshot is an opaque byte slice filed under a slash-separated name.
// DiskStore keeps snapshots in a directory next to a JSON metadata file
// holding the content hash; S3Store keeps them as objects under a key
// prefix with the hash in the object metadata. Both verify the hash on read.
//
//	store, err := snapshot.Open(ctx, cfg.Snapshot)
//	if err := store.Put(ctx, "todo/initial", html); err != nil { ... }
//	if err := snapshot.Check(ctx, store, "todo/initial", html); err != nil { ... }
package snapshot
