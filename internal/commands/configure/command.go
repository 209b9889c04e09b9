package configure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	cli "github.com/urfave/cli/v2"

	"github.com/artuross/workflow-engine/internal/runnerconfig"
)

var ErrCommandFailed = errors.New("command failed")

func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "configure",
		Usage: "Writes an engine configuration file with default values.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-file",
				Usage: "Destination path for the engine configuration file.",
				Value: "./.config/engine.json",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrites an existing configuration file.",
			},
		},
		Action: run,
	}
}

func run(cliCtx *cli.Context) error {
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().With().Str("command", "configure").Logger()

	path := cliCtx.String("config-file")

	if _, err := os.Stat(path); err == nil && !cliCtx.Bool("force") {
		logger.Error().Str("path", path).Msg("config file already exists, use --force to overwrite")
		return ErrCommandFailed
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create config directory")
		return ErrCommandFailed
	}

	config := runnerconfig.Default()

	if err := runnerconfig.SaveConfigFile(path, &config); err != nil {
		logger.Error().Err(err).Msg("save engine config file")
		return ErrCommandFailed
	}

	fmt.Printf("wrote %s\n", path)

	return nil
}
