// Package logs reads the redub log file for the logs command.
//
// Last returns the final N matching lines with bounded memory, and Follow
// polls for appended lines until its context is cancelled. A Filter narrows
// output to one run or stage and understands both the console and JSON log
// formats.
package logs
