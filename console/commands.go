package console

import "github.com/galaplate/foundry/console/commands"

// RegisterCommands registers all available console commands
func (k *Kernel) RegisterCommands() {
	// Make commands
	k.Register(&commands.MakeFactoryCommand{})
}
