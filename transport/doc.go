// Package transport carries encoded messages between endpoints. It
// provides the 16-byte transactional message header and an in-process
// channel pair with the same limits and close semantics a kernel
// channel would impose, so the full encode → transfer → decode path
// can run inside one process.
package transport
