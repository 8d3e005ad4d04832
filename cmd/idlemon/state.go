package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/idlemon/idlemon/pkg/imstate"
	"github.com/idlemon/idlemon/pkg/prettyduration"
	"github.com/joho/godotenv"
	"github.com/scylladb/termtables"
	"github.com/spf13/cobra"
)

// read-only local inspection of the persisted document. mutates nothing.
func stateEntry() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the persisted monitor state",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			stateShow()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "subscribers",
		Short: "List notification subscribers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			subscribersList()
		},
	})

	return cmd
}

func loadStateDocument() imstate.Document {
	_ = godotenv.Load()

	store := imstate.NewFileStore(getenvDefault("IDLEMON_STATE_FILE", defaultStateFile))

	return store.Load(time.Now(), leveled(nil, false))
}

func stateShow() {
	doc := loadStateDocument()

	view := termtables.CreateTable()
	view.AddHeaders("Field", "Value")
	view.AddRow("subscribers", strings.Join(doc.Subscribers, " "))
	view.AddRow("max_idle", prettyduration.Format(doc.MaxIdleSeconds))
	view.AddRow("idle_since", doc.IdleSince.Format(time.RFC3339))
	view.AddRow("last_update", doc.LastUpdate.Format(time.RFC3339))

	fmt.Println(view.Render())
}

func subscribersList() {
	doc := loadStateDocument()

	view := termtables.CreateTable()
	view.AddHeaders("Subscriber")

	for _, sub := range doc.Subscribers {
		view.AddRow(sub)
	}

	fmt.Println(view.Render())
}
