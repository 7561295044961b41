// Package resource throttles partition IO.
package resource
