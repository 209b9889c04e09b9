package validate

import (
	"errors"
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/rs/zerolog"
	cli "github.com/urfave/cli/v2"

	"github.com/artuross/workflow-engine/internal/workflow"
)

var ErrCommandFailed = errors.New("command failed")

func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Checks a workflow file for structural errors without running it.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Path to the workflow definition file.",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Dumps the parsed workflow.",
			},
		},
		Action: run,
	}
}

func run(cliCtx *cli.Context) error {
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().With().Str("command", "validate").Logger()

	path := cliCtx.String("file")

	definition, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Msg("read workflow file")
		return ErrCommandFailed
	}

	wf, err := workflow.Parse(definition)
	if err != nil {
		var malformed *workflow.MalformedDefinitionError
		if errors.As(err, &malformed) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, malformed)
			return ErrCommandFailed
		}

		logger.Error().Err(err).Msg("parse workflow file")
		return ErrCommandFailed
	}

	if cliCtx.Bool("print") {
		pretty.Println(wf)
	}

	fmt.Printf("%s: ok (%d jobs)\n", path, len(wf.Jobs))

	return nil
}
