// Package repositorycache adds read-through caching to go-repository-bun repositories.
//
// # Overview
//
// CachedRepository wraps a repository.Repository[T] and routes its reads
// through a cache.Memoizer. It implements the full Repository[T] interface, so
// callers swap it in without other changes.
//
//	memo, err := cache.NewMemoizerFromConfig(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	films := repositorycache.New[*catalog.Film](baseRepo, memo,
//		repositorycache.WithQueryRenderer(db))
//
//	film, err := films.GetByID(ctx, id)
//
// # Operations and Keys
//
// Reads use the operation name "<namespace>.<Method>", where namespace is the
// snake_case record type name unless WithNamespace overrides it:
//
//	film.GetByID:{"id":"7f1c..."}
//	film.List:{"criteria":"SELECT * WHERE (genre = 'horror')"}
//
// Select criteria are functions, so they only become part of a key when a
// query renderer is configured. Without one, reads that carry criteria skip
// the cache.
//
// # Writes
//
// Successful writes, including their *Tx variants, drop every cached read of
// the namespace by pattern. Failed writes leave the cache untouched.
//
// # Pass-through Operations
//
// Transactional reads (*Tx) and Raw queries never read or fill the cache.
// WithoutCache marks a context so that ordinary reads skip it too.
package repositorycache
