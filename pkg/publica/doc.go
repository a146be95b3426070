// Package publica provides a reusable library for managing user
// publications (a post with a description, an image, a like counter and an
// ordered comment list) with pluggable repository and image storage
// backends.
//
// It exposes a single Service interface that orchestrates the publication
// lifecycle: creation (optional server-side image filtering, image upload,
// document persistence), reads (by id, per account, global feed) and
// concurrent mutations (like, unlike, comment, description change, delete).
// Implementations of repositories (memory, MongoDB, Postgres) and image
// stores (memory, S3) are provided under subpackages.
//
// Concurrency Model
//
// Likes and comments are shared, concurrently-mutated state. All mutations
// go through Repository.Mutate, a per-document read-modify-write transaction
// that backends must make serializable relative to other transactions on the
// same document id. The service itself holds no locks; it is safe to run any
// number of instances against the same repository.
package publica
