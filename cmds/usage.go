package cmds

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
)

func (p *Executor) PrintUsage() {
	printCommands(p.commands, 0)
}

func printCommands(commands map[string]*Command, indent int) {
	names := slices.Sorted(maps.Keys(commands))
	printed := make(map[*Command]bool)
	for _, name := range names {
		command := commands[name]
		if command == nil || printed[command] {
			continue
		}
		printed[command] = true

		parts := []string{name}
		parts = append(parts, command.Aliases...)
		line := strings.Repeat("  ", indent) + strings.Join(parts, ", ")
		if command.Description != "" {
			line += "\n" + strings.Repeat("  ", indent+1) + command.Description
		}
		fmt.Fprintln(os.Stdout, line)

		if len(command.Subs) > 0 {
			printCommands(command.Subs, indent+1)
		}
	}
}
