// Package log provides the leveled logging interface used across graphqa.
//
// Components take a Logger rather than writing to stderr themselves; the
// default implementation wraps the standard library, and GologLogger wraps
// kataras/golog for colored terminal output in the CLI.
package log
