package jupyter

import "fmt"

// ServerNotFoundError means the environment has no jupyter executable.
type ServerNotFoundError struct {
	Path string
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("jupyter not found at %s", e.Path)
}

func (e *ServerNotFoundError) Hint() string {
	return "run `sp init` to set up the workspace"
}

// WorkspaceMissingError means the notebook directory does not exist.
type WorkspaceMissingError struct {
	Path string
}

func (e *WorkspaceMissingError) Error() string {
	return fmt.Sprintf("workspace directory %s does not exist", e.Path)
}

func (e *WorkspaceMissingError) Hint() string {
	return "run `sp init` or `sp install --repair` to recreate it"
}
