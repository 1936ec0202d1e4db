// Package store archives completed analysis runs.
//
// Two implementations of [Store] are provided: [SQLite], a file-backed
// archive opened with [Open], and [Memory], an in-process archive for tests
// and ephemeral servers.
//
//	s, err := store.Open("runs.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	rec := store.NewRecord("chapter1.txt", state, elapsed, client.Usage())
//	if err := s.Save(ctx, rec); err != nil {
//	    log.Fatal(err)
//	}
package store
