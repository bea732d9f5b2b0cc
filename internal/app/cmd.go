package app

// Command is the mode the binary runs in.
type Command string

const (
	CommandServe   Command = "serve"
	CommandMigrate Command = "migrate"
	// CommandCreateAdmin creates an admin account. Admins cannot register themselves.
	CommandCreateAdmin Command = "create-admin"
	// CommandHealthcheck probes a running server's /healthz, for container health checks.
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand returns the subcommand named by args. No or unknown arguments mean serve.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "create-admin":
		return CommandCreateAdmin
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
