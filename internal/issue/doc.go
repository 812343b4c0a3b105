// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling for shtest.
//
// ActionableError records which operation failed, the resource involved and
// hints for fixing it. The catalog in this package holds longer Markdown
// explanations that the shtest CLI renders for the most common failures.
package issue
