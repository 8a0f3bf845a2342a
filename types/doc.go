// Package types provides the core prompt tree model used across promptfit.
// This package has ZERO dependencies on other promptfit packages to avoid
// circular imports. All other packages should import types from here.
//
// The tree is built from two closed sums:
//
//   - Node: Message | *Scope
//   - Part: TextPart | ReasoningPart | ToolCallPart | ToolResultPart
//
// Values are immutable by convention: every mutation helper returns a new
// value, and the fit engine never writes through a caller-owned pointer.
//
// The collaborator interfaces (Codec, Provider, Strategy) also live here.
// They are referenced from Scope, so defining them in their implementing
// packages would create an import cycle.
package types
