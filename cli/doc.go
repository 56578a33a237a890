// Package cli renders a glideterm editor view inside an actual CLI
// terminal. It is the fallback frontend: no GPU surface is available, so
// the compositor is left uninitialized and the direct render path draws
// the grid with ANSI sequences, differentially, at whole-line granularity.
//
// The animator still runs; with a cell height of one "pixel" per line it
// quantizes every scroll step into whole lines immediately, which keeps
// the scroll reconciliation path identical to the GUI frontends.
//
// Basic usage:
//
//	term, err := cli.New(cli.Options{File: "notes.txt"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := term.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer term.Stop()
//	term.Wait()
package cli
