package commands

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/assignctl/internal/assignment"
	"git.home.luguber.info/inful/assignctl/internal/permission"
)

// CreateCmd implements the 'create' command.
type CreateCmd struct {
	Assignment string   `arg:"" help:"Assignment name; repositories are named <assignment>_<login>"`
	Users      []string `arg:"" optional:"" help:"Student logins"`
	FromTeam   string   `name:"from-team" help:"Add every member of this team to the user list"`
	Template   string   `short:"t" help:"Template repository (owner/name) to generate from"`
	Level      string   `short:"l" help:"Permission granted to each student (pull, push, admin)" default:"pull"`
}

func (c *CreateCmd) Run(g *Global, root *CLI) error {
	rt, err := root.open()
	if err != nil {
		return err
	}
	defer closeRuntime(rt)
	return c.run(context.Background(), g, rt.service)
}

func (c *CreateCmd) run(ctx context.Context, g *Global, svc *assignment.Service) error {
	users := append([]string{}, c.Users...)
	if c.FromTeam != "" {
		members, err := svc.TeamMembers(ctx, c.FromTeam)
		if err != nil {
			return err
		}
		users = mergeLogins(users, members)
	}
	if len(users) == 0 {
		return assignment.ErrInvalidInput.WithContext("reason", "no users given (pass logins or --from-team)")
	}

	created, err := svc.CreateRepos(ctx, c.Assignment, users, assignment.CreateOptions{
		Template: c.Template,
		Level:    permission.Level(c.Level),
	})
	if err != nil {
		return err
	}

	verb := "would create"
	if svc.Live() {
		verb = "created"
	}
	for _, name := range created {
		_, _ = fmt.Fprintf(g.Out, "%s %s/%s\n", verb, svc.Org(), name)
	}
	_, _ = fmt.Fprintf(g.Out, "%d repositories %s\n", len(created), verb)
	return nil
}

// mergeLogins appends the logins of extra not already in base, ignoring case.
func mergeLogins(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	for _, u := range base {
		seen[strings.ToLower(u)] = true
	}
	for _, u := range extra {
		if key := strings.ToLower(u); !seen[key] {
			seen[key] = true
			base = append(base, u)
		}
	}
	return base
}
