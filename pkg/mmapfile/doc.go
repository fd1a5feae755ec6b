// Package mmapfile provides a memory-mapped file abstraction that serves
// reads cheaply when they fall inside the mapped prefix and falls through
// to positioned I/O when the file has grown past it.
//
// The map is taken once at Open and never remapped. Growing the file via
// Grow extends it on disk without touching the map, so borrows returned by
// Read remain valid for the File's lifetime — remapping on every growth
// would invalidate outstanding borrows and force every reader to
// quiesce. The cost is that bytes past the mapped window always pay for a
// positioned read or write instead of a borrow.
package mmapfile
