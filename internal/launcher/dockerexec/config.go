package dockerexec

// Config describes how to run the runtime command inside Docker containers.
type Config struct {
	// Image is the container image holding the runtime command.
	Image string
	// Workdir is the in-container working directory. Host files are staged
	// under it before the container starts. Defaults to /workspace.
	Workdir string
}
