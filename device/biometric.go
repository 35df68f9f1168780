package device

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// BiometricGate stands in for the platform biometric capability. The
// private key is never unsealed without a successful Authenticate call.
type BiometricGate interface {
	// HasHardware reports whether a biometric sensor exists at all
	HasHardware() bool
	// IsEnrolled reports whether at least one biometric is enrolled
	IsEnrolled() bool
	// Authenticate blocks until the user passes or fails the check.
	// reason is shown to the user. Returns ErrAuthenticationCancelled
	// when the user declines or fails the prompt.
	Authenticate(reason string) error
}

// TerminalGate approximates the biometric prompt with an interactive
// yes/no confirmation. Used by the CLI client and manual testing.
type TerminalGate struct {
	In  io.Reader
	Out io.Writer
}

func NewTerminalGate(in io.Reader, out io.Writer) *TerminalGate {
	return &TerminalGate{In: in, Out: out}
}

func (g *TerminalGate) HasHardware() bool { return true }

func (g *TerminalGate) IsEnrolled() bool { return true }

func (g *TerminalGate) Authenticate(reason string) error {
	fmt.Fprintf(g.Out, "%s\nConfirm with 'yes': ", reason)
	line, err := bufio.NewReader(g.In).ReadString('\n')
	if err != nil {
		return ErrAuthenticationCancelled
	}
	if strings.TrimSpace(strings.ToLower(line)) != "yes" {
		return ErrAuthenticationCancelled
	}
	return nil
}

// StubGate answers from fixed fields. Tests use it for every outcome.
type StubGate struct {
	Hardware bool
	Enrolled bool
	Allow    bool
}

// NewStubGate returns a gate that passes every check
func NewStubGate() *StubGate {
	return &StubGate{Hardware: true, Enrolled: true, Allow: true}
}

func (g *StubGate) HasHardware() bool { return g.Hardware }

func (g *StubGate) IsEnrolled() bool { return g.Enrolled }

func (g *StubGate) Authenticate(reason string) error {
	if !g.Allow {
		return ErrAuthenticationCancelled
	}
	return nil
}
