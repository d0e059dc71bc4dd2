package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/assignctl/internal/assignment"
)

// DeleteCmd implements the 'delete' command. The operator must type the
// deletion phrase on stdin.
type DeleteCmd struct {
	Assignment string `arg:"" help:"Assignment whose repositories are deleted"`
}

func (d *DeleteCmd) Run(g *Global, root *CLI) error {
	rt, err := root.open()
	if err != nil {
		return err
	}
	defer closeRuntime(rt)
	return d.run(context.Background(), g, rt.service)
}

func (d *DeleteCmd) run(ctx context.Context, g *Global, svc *assignment.Service) error {
	deleted, err := svc.DeleteRepos(ctx, d.Assignment, promptConfirmer(g.In, g.Out))
	if err != nil {
		return err
	}
	verb := "would delete"
	if svc.Live() {
		verb = "deleted"
	}
	for _, name := range deleted {
		_, _ = fmt.Fprintf(g.Out, "%s %s\n", verb, name)
	}
	_, _ = fmt.Fprintf(g.Out, "%d repositories %s\n", len(deleted), verb)
	return nil
}

// promptConfirmer prints the phrase to out and reads one line from in.
func promptConfirmer(in io.Reader, out io.Writer) assignment.Confirmer {
	return assignment.ConfirmFunc(func(ctx context.Context, phrase string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		_, _ = fmt.Fprintf(out, "Type %q to confirm: ", phrase)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	})
}
