package commands

import (
	"context"
	"fmt"
)

// MembersCmd implements the 'members' command.
type MembersCmd struct {
	Team string `arg:"" help:"Team slug"`
}

func (m *MembersCmd) Run(g *Global, root *CLI) error {
	rt, err := root.open()
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	members, err := rt.service.TeamMembers(context.Background(), m.Team)
	if err != nil {
		return err
	}
	for _, login := range members {
		_, _ = fmt.Fprintln(g.Out, login)
	}
	return nil
}
