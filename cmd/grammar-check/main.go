package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pedroscocco/linux-sac-bot/internal/grammar"
)

// grammar-check validates a menu grammar file without starting the bot:
//
//	grammar-check -file configs/menu.yaml
//
// With no -file it checks the built-in menu. Exits non-zero when the
// grammar would be rejected at startup.
func main() {
	path := flag.String("file", "", "path to a YAML grammar file (default: built-in menu)")
	flag.Parse()

	var (
		menu *grammar.Grammar
		err  error
	)
	if *path == "" {
		menu, err = grammar.New(grammar.Default())
	} else {
		menu, err = grammar.Load(*path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "grammar-check: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("initial state: %s\n", menu.Initial())
	fmt.Printf("states: %d\n", len(menu.States()))
	for _, state := range menu.States() {
		fmt.Printf("  %s:\n", state)
		for _, label := range menu.AvailableTransitions(state) {
			to, _ := menu.Resolve(state, label)
			fmt.Printf("    %q -> %s\n", label, to)
		}
	}
	fmt.Println("grammar OK")
}
