package root

import (
	"github.com/artuross/workflow-engine/internal/commands/configure"
	"github.com/artuross/workflow-engine/internal/commands/run"
	"github.com/artuross/workflow-engine/internal/commands/validate"
	cli "github.com/urfave/cli/v2"
)

func NewCommand() *cli.App {
	return &cli.App{
		Name:  "engine",
		Usage: "Runs declarative workflows locally.",
		Commands: []*cli.Command{
			configure.NewCommand(),
			run.NewCommand(),
			validate.NewCommand(),
		},
	}
}
