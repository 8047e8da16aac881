package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ╦┬ ┬┌─┐╔═╗┌─┐
  ╚╗╔╝│ │├┤ ║ ╦│ │
   ╚╝ └─┘└─┘╚═╝└─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "vuego",
		Short: "Server-side rendering for Vue components in Go",
		Long: `VueGo bridges Go web applications and Vue single-file components.

Embed Vue components in server-rendered pages, with markup produced
ahead of time by a render service. Features include:

  • SSR through the Vite dev server or a persistent worker pool
  • Automatic fallback to client-only mounting
  • Live prop sync over WebSocket
  • Hot reload development server
  • S3 bundle distribution for production`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		initCmd(),
		devCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the VueGo ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
