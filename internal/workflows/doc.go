// Package workflows implements the operations behind VaultRunner commands.
//
// Each workflow is a plain function taking a context, its collaborators
// (key store, store client, backup engine), and an Options struct, and
// returning a Result struct plus an error from the sentinel taxonomy in
// internal/errors. The cmd layer owns all prompting, confirmation, and
// rendering; workflows own sequencing, validation, dry-run handling, and
// audit logging.
package workflows
