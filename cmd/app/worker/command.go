package worker

import "github.com/urfave/cli/v2"

func Command() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "start worker without serving HTTP",
		Action: func(c *cli.Context) error {
			Run()
			return nil
		},
	}
}
