package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"zonys/config"
	"zonys/identity"
	"zonys/transmission"
	"zonys/util"
	"zonys/zone"
)

// syntheticDirective builds a root Directive carrying only the
// --include values given on the command line and writes it to a
// temp file, mirroring zonys-cli's main.rs: `create`/`deploy`/`run`
// never take a configuration path of their own — they construct a
// directive whose only content is its includes.
func syntheticDirective(includes []string, startAfterCreate, destroyAfterStop bool) (string, error) {
	directive := config.Directive{Includes: includes}

	if startAfterCreate {
		t := true
		directive.StartAfterCreate = &t
	}

	if destroyAfterStop {
		t := true
		directive.DestroyAfterStop = &t
	}

	data, err := yaml.Marshal(directive)
	if err != nil {
		return "", fmt.Errorf("marshaling synthetic directive: %w", err)
	}

	f, err := os.CreateTemp("", "zonys-directive-*.yaml")
	if err != nil {
		return "", fmt.Errorf("creating synthetic directive: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("writing synthetic directive: %w", err)
	}

	return f.Name(), nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <regex>",
		Short: "print the UUID of every zone matching the selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.Match(currentBase(), args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				fmt.Println(z.Identity.UUID.String())
			}

			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	var includes []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "create a zone from the given includes",
		RunE: func(cmd *cobra.Command, args []string) error {
			directivePath, err := syntheticDirective(includes, false, false)
			if err != nil {
				return err
			}
			defer os.Remove(directivePath)

			id, err := zone.Create(runCtx(), currentBase(), directivePath, nil)
			if err != nil {
				return err
			}

			fmt.Println(id.UUID.String())

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&includes, "include", "i", nil, "directive file to include (repeatable)")

	return cmd
}

func newDestroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <regex>",
		Short: "destroy every zone matching the selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.Match(currentBase(), args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				uuid := z.Identity.UUID.String()

				if z.Running() {
					if _, err := zone.Stop(runCtx(), z); err != nil {
						return err
					}
				}

				if err := zone.Destroy(runCtx(), z); err != nil {
					return err
				}

				fmt.Println(uuid)
			}

			return nil
		},
	}
}

func newRecreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recreate <regex>",
		Short: "destroy and recreate every zone matching the selector, from its existing configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.Match(currentBase(), args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				unit := z.Unit
				base := identity.Base(append([]string{}, z.Identity.Base...))

				if err := zone.Destroy(runCtx(), z); err != nil {
					return err
				}

				id, err := zone.CreateFromUnit(runCtx(), base, unit)
				if err != nil {
					return err
				}

				fmt.Println(id.UUID.String())
			}

			return nil
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <regex>",
		Short: "start every zone matching the selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.Match(currentBase(), args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				if err := zone.Start(runCtx(), z); err != nil {
					return err
				}

				fmt.Println(z.Identity.UUID.String())
			}

			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <regex>",
		Short: "stop every zone matching the selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.Match(currentBase(), args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				uuid := z.Identity.UUID.String()

				if _, err := zone.Stop(runCtx(), z); err != nil {
					return err
				}

				fmt.Println(uuid)
			}

			return nil
		},
	}
}

// restartOne stops a running zone and starts it again; if stopping
// destroyed it (destroy_after_stop), it's recreated from its prior
// configuration before starting, mirroring main.rs's Restart arm.
func restartOne(base identity.Base, z *zone.Zone) (*zone.Zone, error) {
	unit := z.Unit

	if z.Running() {
		stopped, err := zone.Stop(runCtx(), z)
		if err != nil {
			return nil, err
		}

		if stopped == nil {
			id, err := zone.CreateFromUnit(runCtx(), base, unit)
			if err != nil {
				return nil, err
			}

			z, err = zone.Open(id)
			if err != nil {
				return nil, err
			}
		} else {
			z = stopped
		}
	}

	if err := zone.Start(runCtx(), z); err != nil {
		return nil, err
	}

	return z, nil
}

func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart <regex>",
		Short: "stop and start every zone matching the selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := currentBase()

			zones, err := zone.Match(base, args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				restarted, err := restartOne(base, z)
				if err != nil {
					return err
				}

				fmt.Println(restarted.Identity.UUID.String())
			}

			return nil
		},
	}
}

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up <regex>",
		Short: "start every matching zone that isn't already running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.Match(currentBase(), args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				if z.Running() {
					continue
				}

				if err := zone.Start(runCtx(), z); err != nil {
					return err
				}

				fmt.Println(z.Identity.UUID.String())
			}

			return nil
		},
	}
}

func newDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down <regex>",
		Short: "stop every matching zone that's currently running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.Match(currentBase(), args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				if !z.Running() {
					continue
				}

				uuid := z.Identity.UUID.String()

				if _, err := zone.Stop(runCtx(), z); err != nil {
					return err
				}

				fmt.Println(uuid)
			}

			return nil
		},
	}
}

func newReupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reup <regex>",
		Short: "restart every matching running zone, start every matching stopped zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := currentBase()

			zones, err := zone.Match(base, args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				if z.Running() {
					restarted, err := restartOne(base, z)
					if err != nil {
						return err
					}

					fmt.Println(restarted.Identity.UUID.String())

					continue
				}

				if err := zone.Start(runCtx(), z); err != nil {
					return err
				}

				fmt.Println(z.Identity.UUID.String())
			}

			return nil
		},
	}
}

func newDeployCmd() *cobra.Command {
	var includes []string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "create a zone from the given includes and start it",
		RunE: func(cmd *cobra.Command, args []string) error {
			directivePath, err := syntheticDirective(includes, false, false)
			if err != nil {
				return err
			}
			defer os.Remove(directivePath)

			id, err := zone.Create(runCtx(), currentBase(), directivePath, nil)
			if err != nil {
				return err
			}

			z, err := zone.Open(id)
			if err != nil {
				return err
			}

			if !z.Running() {
				if err := zone.Start(runCtx(), z); err != nil {
					return err
				}
			}

			fmt.Println(id.UUID.String())

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&includes, "include", "i", nil, "directive file to include (repeatable)")

	return cmd
}

func newUndeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undeploy <regex>",
		Short: "stop and destroy every zone matching the selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.Match(currentBase(), args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				uuid := z.Identity.UUID.String()

				if z.Running() {
					stopped, err := zone.Stop(runCtx(), z)
					if err != nil {
						return err
					}

					z = stopped
				}

				if z != nil {
					if err := zone.Destroy(runCtx(), z); err != nil {
						return err
					}
				}

				fmt.Println(uuid)
			}

			return nil
		},
	}
}

func newRedeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeploy <regex>",
		Short: "undeploy and redeploy every zone matching the selector, from its existing configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := currentBase()

			zones, err := zone.Match(base, args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				unit := z.Unit
				uuid := z.Identity.UUID.String()

				if z.Running() {
					stopped, err := zone.Stop(runCtx(), z)
					if err != nil {
						return err
					}

					z = stopped
				}

				if z != nil {
					if err := zone.Destroy(runCtx(), z); err != nil {
						return err
					}
				}

				id, err := zone.CreateFromUnit(runCtx(), base, unit)
				if err != nil {
					return err
				}

				newZone, err := zone.Open(id)
				if err != nil {
					return err
				}

				if err := zone.Start(runCtx(), newZone); err != nil {
					return err
				}

				fmt.Println(uuid, "->", id.UUID.String())
			}

			return nil
		},
	}
}

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <regex>",
		Short: "send every zone matching the selector to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.Match(currentBase(), args[0])
			if err != nil {
				return err
			}

			for _, z := range zones {
				if err := zone.Send(z, os.Stdout); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func newReceiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receive",
		Short: "receive zones from standard input until EOF",
		RunE: func(cmd *cobra.Command, args []string) error {
			base := currentBase()
			r := stdinReader()

			for {
				id, err := zone.Receive(base, r)
				if err != nil {
					if errors.Is(err, transmission.ErrEmptyInput) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
						return nil
					}

					return err
				}

				fmt.Println(id.UUID.String())
			}
		},
	}
}

func newRunCmd() *cobra.Command {
	var includes []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "create a zone that starts immediately and destroys itself on stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			directivePath, err := syntheticDirective(includes, true, true)
			if err != nil {
				return err
			}
			defer os.Remove(directivePath)

			id, err := zone.Create(runCtx(), currentBase(), directivePath, nil)
			if err != nil {
				return err
			}

			fmt.Println(id.UUID.String())

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&includes, "include", "i", nil, "directive file to include (repeatable)")

	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "print a table of every known zone",
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.All(currentBase())
			if err != nil {
				return err
			}

			util.PrintTableOfZones(os.Stdout, zones...)

			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "print the UUID of every known zone",
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := zone.All(currentBase())
			if err != nil {
				return err
			}

			for _, z := range zones {
				fmt.Println(z.Identity.UUID.String())
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(
		newShowCmd(),
		newCreateCmd(),
		newDestroyCmd(),
		newRecreateCmd(),
		newStartCmd(),
		newStopCmd(),
		newRestartCmd(),
		newUpCmd(),
		newDownCmd(),
		newReupCmd(),
		newDeployCmd(),
		newUndeployCmd(),
		newRedeployCmd(),
		newSendCmd(),
		newReceiveCmd(),
		newRunCmd(),
		newStatusCmd(),
		newListCmd(),
	)
}
