// Package preflight provides readiness checks for the filesystem paths
// and external binaries the transform pipeline depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll once at startup and logs any failures
//     before accepting uploads.
//   - The CLI "clarion doctor" command uses the same checks to display
//     environment health.
package preflight
