// Package logger provides leveled, colored logging for VaultRunner commands.
//
// Output is gated by two flags carried on every command:
//
//   - --verbose: shows info and warning messages
//   - --debug: shows everything, including debug details
//
// Without flags, only errors and critical warnings are shown.
//
// Commands create a logger in their PersistentPreRun and pass it down. The
// logger is also the designated channel for diagnostic detail that must not
// reach error messages, such as the distinction between a wrong password and
// a tampered key store file.
//
// No secret value, password, or derived key may ever be passed to any of
// these methods.
package logger
