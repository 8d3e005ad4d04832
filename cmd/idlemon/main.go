package main

import (
	"fmt"
	"os"

	"github.com/function61/gokit/dynversion"
	"github.com/function61/gokit/logex"
	"github.com/function61/gokit/ossignal"
	"github.com/spf13/cobra"
)

func main() {
	app := &cobra.Command{
		Use:     os.Args[0],
		Short:   "Idle machine watchdog with text-message notifications",
		Version: dynversion.Version,
	}

	app.AddCommand(serveEntry())

	app.AddCommand(stateEntry())

	exitIfError(app.Execute())
}

func serveEntry() *cobra.Command {
	debug := false

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the watchdog: webhook listener + monitor loop",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := configFromEnv()
			exitIfError(err)

			logger := logex.StandardLogger()

			exitIfError(serve(
				ossignal.InterruptOrTerminateBackgroundCtx(logger),
				conf,
				logger,
				debug))
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", debug, "Raise log verbosity")

	return cmd
}

func exitIfError(err error) {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
