package console

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Command is a console command addressed by its signature, e.g. make:factory.
type Command interface {
	GetSignature() string
	GetDescription() string
	Execute(args []string) error
}

// FlagDefiner is implemented by commands that take flags.
type FlagDefiner interface {
	Flags(fs *pflag.FlagSet)
}

// Kernel mounts registered commands on a cobra root command.
type Kernel struct {
	root *cobra.Command
}

func NewKernel() *Kernel {
	k := &Kernel{
		root: &cobra.Command{
			Use:           "foundry",
			Short:         "Model factories for gorm models",
			SilenceUsage:  true,
			SilenceErrors: true,
		},
	}
	k.RegisterCommands()
	return k
}

func (k *Kernel) Register(command Command) {
	cmd := &cobra.Command{
		Use:   command.GetSignature(),
		Short: command.GetDescription(),
		RunE: func(_ *cobra.Command, args []string) error {
			return command.Execute(args)
		},
	}
	if definer, ok := command.(FlagDefiner); ok {
		definer.Flags(cmd.Flags())
	}
	k.root.AddCommand(cmd)
}

func (k *Kernel) Root() *cobra.Command {
	return k.root
}

// Run executes the command line args, without the program name.
func (k *Kernel) Run(args []string) error {
	k.root.SetArgs(args)
	return k.root.Execute()
}
