// package repositories provides the sqlite persistence layer for the library
// cache.
//
// [PageCache] stores fetched library pages (saved tracks, playlist windows,
// search results) keyed by source, key, and offset, with track rows
// deduplicated across pages by provider id. The cache is advisory: the TUI
// renders a cached page immediately while the dispatcher refreshes it from the
// network, and a corrupt or missing row is treated as a plain miss.
package repositories
