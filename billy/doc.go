// Package billy adapts any go-billy filesystem into a core.Store.
//
// It is the bridge for code that already holds a billy.Filesystem,
// such as go-git worktrees, and doubles as a second in-memory backend
// via memfs. Writes stage through billy temp files and rename into
// place. Conditional moves stat the destination before committing, so
// unlike the local backend they are check-then-act rather than atomic;
// callers needing atomic conditionals on disk should use the local
// store directly.
package billy
