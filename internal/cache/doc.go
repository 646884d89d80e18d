// Package cache keeps synthesized speech so replayed narrations do not
// run the speech engine again. A small in-memory LRU sits in front of a
// zstd-compressed directory on disk.
package cache
