// Package config provides centralized, validated configuration for the
// NEXUS execution core: execution limits, the process/PTY supervisor,
// the resource manager, retry defaults, checkpoint/history locations,
// and the loopback HTTP surface.
//
// Use Default, Development, Production, or Testing to obtain a starting
// Config, then override fields directly before passing it to engine.New.
package config
