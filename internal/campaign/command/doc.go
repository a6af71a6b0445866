// Package command defines the command envelope and the pure decision type
// returned by the campaign decider.
package command
