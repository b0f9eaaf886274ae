// Package integration wraps the external tools drover drives: the coding
// agent CLI and git.
package integration

// AgentAlias maps a short alias name to a full agent command with optional
// default arguments.
type AgentAlias struct {
	Name        string
	Command     string
	DefaultArgs []string
}

// AgentSpec is a fully resolved agent invocation.
type AgentSpec struct {
	Command     string
	DefaultArgs []string
}

// ResolveAgent scans the aliases for a matching name. If found, the expanded
// command and default args are returned; otherwise the name is used as the
// command directly.
func ResolveAgent(name string, aliases []AgentAlias) AgentSpec {
	for _, a := range aliases {
		if a.Name == name {
			return AgentSpec{Command: a.Command, DefaultArgs: a.DefaultArgs}
		}
	}
	return AgentSpec{Command: name}
}
