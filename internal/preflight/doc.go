// Package preflight provides readiness checks for the external tools,
// directories and remote services redub depends on.
//
// These checks run in two contexts:
//   - The analyze/finish/run commands call RunAll before doing any work, so a
//     missing directory or unreachable translation endpoint fails fast
//     instead of after a long separation pass.
//   - The "redub check" command renders every individual result, including
//     external binaries and Python modules.
package preflight
