// Package crawler defines the fetch-side contracts of the harvester: the
// Fetcher transport, its request/response types, the linear retry policy,
// and the storage, hashing, clock, and ID seams shared by the pipeline.
package crawler
