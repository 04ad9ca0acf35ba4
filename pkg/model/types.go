package model

// Variant names the command family used to drive git maintenance.
type Variant string

const (
	// VariantBuiltin uses the unified `git maintenance run --task=<task>`.
	VariantBuiltin Variant = "builtin"
	// VariantLegacy uses discrete subcommands such as `git commit-graph write`.
	VariantLegacy Variant = "legacy"
)

// LockState represents the current state of the object cache lock.
type LockState string

const (
	LockStateHeld LockState = "held"
	LockStateFree LockState = "free"
)
