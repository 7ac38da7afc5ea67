package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ranjith-47/care-navigator/internal/facility"
	"github.com/Ranjith-47/care-navigator/internal/triage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run a triage conversation in the terminal",
		RunE:  runChat,
	}
	cmd.Flags().Bool("json", false, "Print each reply as JSON")
	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}
	engine := tables.Engine(tables.Ranker())

	out := cmd.OutOrStdout()
	session := triage.NewSession()
	fmt.Fprintln(out, triage.Greeting)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for !session.Complete() {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(text), "quit") {
			return nil
		}

		reply := engine.Submit(session, text)
		if asJSON {
			if err := printJSON(out, reply); err != nil {
				return err
			}
			continue
		}
		printReply(out, reply)
	}
	return nil
}

func printReply(w io.Writer, r triage.Reply) {
	for _, m := range r.Messages {
		fmt.Fprintln(w, m)
	}
	for _, c := range r.Controls {
		fmt.Fprintf(w, "  [%s]\n", strings.Join(c.Options, " | "))
	}
	if rec := r.Recommendation; rec != nil {
		fmt.Fprintf(w, "\n== %s (%s) ==\n%s\n", rec.Title, rec.Tier, rec.Description)
		for _, a := range rec.Actions {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}
	if r.Facilities != nil {
		printFacilities(w, *r.Facilities)
	}
}

func printFacilities(w io.Writer, res facility.Result) {
	fmt.Fprintln(w, "\nNearby care:")
	for _, f := range res.Facilities {
		marker := ""
		if f.Emergency24x7 {
			marker = " (24x7)"
		}
		fmt.Fprintf(w, "  * %s, %s%s\n", f.Name, f.City, marker)
	}
	if res.SearchURL != "" {
		fmt.Fprintf(w, "  More: %s\n", res.SearchURL)
	}
}
