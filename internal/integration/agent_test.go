package integration

import "testing"

func TestResolveAgent(t *testing.T) {
	aliases := []AgentAlias{
		{Name: "fast", Command: "claude", DefaultArgs: []string{"--model", "haiku"}},
		{Name: "careful", Command: "claude", DefaultArgs: []string{"--model", "opus"}},
	}

	tests := []struct {
		name        string
		input       string
		wantCommand string
		wantArgs    int
	}{
		{"alias match", "fast", "claude", 2},
		{"second alias", "careful", "claude", 2},
		{"bare command passes through", "aider", "aider", 0},
		{"alias names are exact", "Fast", "Fast", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := ResolveAgent(tt.input, aliases)
			if spec.Command != tt.wantCommand {
				t.Fatalf("command = %q, want %q", spec.Command, tt.wantCommand)
			}
			if len(spec.DefaultArgs) != tt.wantArgs {
				t.Fatalf("default args = %v, want %d entries", spec.DefaultArgs, tt.wantArgs)
			}
		})
	}
}

func TestResolveAgentNilAliases(t *testing.T) {
	spec := ResolveAgent("claude", nil)
	if spec.Command != "claude" || len(spec.DefaultArgs) != 0 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}
