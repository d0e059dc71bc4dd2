package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/assignctl/internal/assignment"
	"git.home.luguber.info/inful/assignctl/internal/permission"
)

// SyncCmd implements the 'sync' command. Classes without a level are left alone.
type SyncCmd struct {
	Assignment string `arg:"" help:"Assignment name"`
	UserLevel  string `name:"user-level" help:"Level for each repository's direct collaborators"`
	TeamLevel  string `name:"team-level" help:"Level for non-privileged teams already on the repository"`
	StaffLevel string `name:"staff-level" help:"Level for the staff team"`
	AdminLevel string `name:"admin-level" help:"Level for the admin team"`
}

func (c *SyncCmd) levels() assignment.DesiredLevels {
	return assignment.DesiredLevels{
		Collaborators: permission.Level(c.UserLevel),
		Teams:         permission.Level(c.TeamLevel),
		Staff:         permission.Level(c.StaffLevel),
		Admin:         permission.Level(c.AdminLevel),
	}
}

func (c *SyncCmd) Run(g *Global, root *CLI) error {
	rt, err := root.open()
	if err != nil {
		return err
	}
	defer closeRuntime(rt)
	return c.run(context.Background(), g, rt.service)
}

func (c *SyncCmd) run(ctx context.Context, g *Global, svc *assignment.Service) error {
	mutations, err := svc.SyncPerms(ctx, c.Assignment, c.levels())
	if err != nil {
		return err
	}
	printMutations(g, svc.Live(), mutations)
	return nil
}

func printMutations(g *Global, live bool, mutations []assignment.Mutation) {
	for _, m := range mutations {
		_, _ = fmt.Fprintln(g.Out, m.String())
	}
	state := "planned (dry run)"
	if live {
		state = "applied"
	}
	_, _ = fmt.Fprintf(g.Out, "%d mutations %s\n", len(mutations), state)
}
