// Package runtime provides the execution context for a repost invocation.
//
// It encapsulates shared dependencies needed by actions,
// such as the resolved configuration, logger, and forge gateway.
package runtime
