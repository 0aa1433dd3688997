package cmd

func init() {
	RegisterCommand(&Command{
		Name:  "version",
		Short: "Show version information",
		Long:  "Print the fiber CLI version and build time.",
		Usage: "fiber version",
		Run: func(args []string) error {
			printVersion()
			return nil
		},
	})
}
