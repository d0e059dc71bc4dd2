package commands

import (
	"context"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/assignctl/internal/assignment"
)

// ResolveCmd implements the 'resolve' command. It never writes.
type ResolveCmd struct {
	Assignment string   `arg:"" help:"Assignment name"`
	Users      []string `arg:"" optional:"" help:"Student logins expected to have a repository"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	rt, err := root.open()
	if err != nil {
		return err
	}
	defer closeRuntime(rt)
	return r.run(context.Background(), g, rt.service)
}

func (r *ResolveCmd) run(ctx context.Context, g *Global, svc *assignment.Service) error {
	res, err := svc.Resolve(ctx, r.Assignment, append([]string{}, r.Users...))
	if err != nil {
		return err
	}

	existing := res.Observed.Keys()
	sort.Strings(existing)
	for _, name := range existing {
		_, _ = fmt.Fprintf(g.Out, "exists  %s\n", name)
	}
	for _, name := range res.ToCreate {
		_, _ = fmt.Fprintf(g.Out, "missing %s\n", name)
	}
	_, _ = fmt.Fprintf(g.Out, "%d existing, %d missing\n", len(existing), len(res.ToCreate))
	return nil
}
