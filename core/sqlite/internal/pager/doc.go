/*
Package pager provides read-only, page-oriented access to a SQLite database file.

A Pager owns the single open handle on the database for the lifetime of the
process. Pages are numbered from 1 and page N lives at byte offset
(N-1)*pageSize; page 1 additionally carries the 100-byte database header in
front of its B-tree page header.

# Sources

The bytes behind a Pager come from one of three sources:

  - a read-only memory mapping of the file (unix, default)
  - positional reads on the open file (other platforms, or when mmap is disabled)
  - an in-memory copy, used for xz-compressed databases and for tests

Open sniffs the first bytes of the file and transparently decompresses
xz-compressed databases, so "chinook.db.xz" can be queried like "chinook.db".

# Caching

Pages read through positional I/O are kept in an LRU PageCache. Memory-backed
sources hand out sub-slices of the mapping directly. Callers must treat every
returned page as read-only.
*/
package pager
