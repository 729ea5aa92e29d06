// Package local reads file trees from the local filesystem.
//
// [Scan] walks a directory into a [tree.Node], skipping version control and
// dependency folders, user exclude globs and, optionally, .gitignore rules.
// [History] and [Commits] read commit data by running git, and [Watcher]
// reports debounced filesystem changes as [tree.Change] batches so that a
// layout can be recomputed against its previous context.
package local
