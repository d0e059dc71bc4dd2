package commands

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/assignctl/internal/config"
)

// ConfigCmd implements the 'config' command. The configuration is printed
// without validation so a missing token shows up as an empty field.
type ConfigCmd struct{}

func (c *ConfigCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Resolve(root.Config)
	if err != nil {
		return err
	}
	out := cfg.Redacted()
	if root.Live || root.DryRun {
		dry := !root.live(cfg)
		out.DryRun = &dry
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = g.Out.Write(data)
	return err
}

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing configuration file"`
	Path  string `arg:"" optional:"" help:"Where to write the file (defaults to --config or assignctl.yaml)" type:"path"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := i.Path
	if path == "" {
		path = root.Config
	}
	if path == "" {
		path = "assignctl.yaml"
	}

	_, _ = fmt.Fprintf(g.Out, "Writing configuration to %s\n", path)
	if err := config.Write(path, config.Default(), i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Out, "Set org and token (or GHE_ORG / GHE_TOKEN) before running other commands")
	return nil
}
