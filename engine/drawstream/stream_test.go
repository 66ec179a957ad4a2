package drawstream

import (
	"testing"

	"github.com/oxyforge/corerender/engine/gal"
)

func TestMergePreservesSubmissionOrder(t *testing.T) {
	a := New()
	a.BeginDebugGroup("gbuffer")
	b := New()
	b.BeginDebugGroup("transparent")

	merged := Merge(a, b)
	cmds := merged.Commands()
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Payload.(DebugGroupPayload).Name != "gbuffer" {
		t.Fatalf("expected gbuffer group first, got %v", cmds[0].Payload)
	}
	if cmds[1].Payload.(DebugGroupPayload).Name != "transparent" {
		t.Fatalf("expected transparent group second, got %v", cmds[1].Payload)
	}
}

func TestUseProgramIdempotenceIsExecutorResponsibility(t *testing.T) {
	s := New()
	p := &gal.Program{}
	s.UseProgram(p)
	s.UseProgram(p)

	var binds int
	var last *gal.Program
	s.Drain(ExecutorFunc(func(cmd Command) {
		if cmd.Op != OpUseProgram {
			return
		}
		prog := cmd.Payload.(UseProgramPayload).Program
		if prog != last {
			binds++
			last = prog
		}
	}))
	if binds != 1 {
		t.Fatalf("expected exactly one effective bind for repeated UseProgram(p), got %d", binds)
	}
}

func TestDrainResetsStream(t *testing.T) {
	s := New()
	s.BeginDebugGroup("x")
	s.Drain(ExecutorFunc(func(Command) {}))
	if s.Len() != 0 {
		t.Fatalf("expected stream reset after drain, got %d remaining commands", s.Len())
	}
}
