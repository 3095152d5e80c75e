// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/container"
)

var searxngCmd = &cobra.Command{
	Use:   "searxng",
	Short: "Run a local SearxNG container for web search",
	Long: `SearxNG manages a local SearxNG instance in Docker or Podman, the
default search backend. The instance must have JSON output enabled
(search.formats in settings.yml); mount a settings directory with --settings.`,
}

var searxngStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Pull the SearxNG image if needed and start the container",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		settings, _ := cmd.Flags().GetString("settings")
		image, _ := cmd.Flags().GetString("image")

		rt, err := container.DetectRuntime()
		if err != nil {
			return err
		}
		spec := container.SearxNG(port, settings)
		if image != "" {
			spec.Image = image
		}

		pulled, err := container.EnsureImage(rt, spec.Image)
		if err != nil {
			return err
		}
		if pulled {
			fmt.Fprintf(os.Stderr, "pulled %s\n", spec.Image)
		}
		if err := rt.Start(spec); err != nil {
			return err
		}
		fmt.Printf("SearxNG started with %s as %s; set search.searxng_url to %s\n",
			rt.Name(), spec.Name, spec.Env["SEARXNG_BASE_URL"])
		return nil
	},
}

var searxngStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop and remove the SearxNG container",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := container.DetectRuntime()
		if err != nil {
			return err
		}
		if err := rt.Stop(container.DefaultName); err != nil {
			return err
		}
		fmt.Println("SearxNG stopped")
		return nil
	},
}

var searxngStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the SearxNG container is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := container.DetectRuntime()
		if err != nil {
			return err
		}
		running, err := rt.Running(container.DefaultName)
		if err != nil {
			return err
		}
		if running {
			fmt.Printf("%s: running (%s)\n", container.DefaultName, rt.Name())
		} else {
			fmt.Printf("%s: stopped\n", container.DefaultName)
		}
		return nil
	},
}

func init() {
	searxngStartCmd.Flags().Int("port", container.DefaultPort, "host port to publish")
	searxngStartCmd.Flags().String("settings", "", "directory with settings.yml to mount at /etc/searxng")
	searxngStartCmd.Flags().String("image", "", "override the SearxNG image")

	searxngCmd.AddCommand(searxngStartCmd)
	searxngCmd.AddCommand(searxngStopCmd)
	searxngCmd.AddCommand(searxngStatusCmd)

	rootCmd.AddCommand(searxngCmd)
}
